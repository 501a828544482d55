package reconcile

import (
	"errors"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

// Stage names a pipeline stage for reporting.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageMatching      Stage = "matching"
	StageCategorize    Stage = "categorization"
	StageDiscrepancies Stage = "discrepancy_detection"
	StageApproval      Stage = "approval"
)

// Error kinds surfaced in stage errors.
const (
	KindAgentUnavailable = "agent_unavailable"
	KindAgentProtocol    = "agent_protocol_error"
)

// StageError records a stage that failed for the whole batch. The
// transactions keep their last good state; nothing is rolled back.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report is the ephemeral outcome of one orchestration run. It is returned to
// the caller and never persisted.
type Report struct {
	Total       int                        `json:"total"`
	ByStatus    map[transaction.Status]int `json:"by_status"`
	Reconciled  int                        `json:"reconciled"`
	StageErrors []StageError               `json:"stage_errors,omitempty"`
	Warnings    []string                   `json:"warnings,omitempty"`
}

func newReport() *Report {
	return &Report{ByStatus: make(map[transaction.Status]int)}
}

func (r *Report) addStageError(stage Stage, err error) {
	kind := KindAgentProtocol
	if errors.Is(err, agent.ErrUnavailable) {
		kind = KindAgentUnavailable
	}

	r.StageErrors = append(r.StageErrors, StageError{
		Stage:   stage,
		Kind:    kind,
		Message: err.Error(),
	})
}

func (r *Report) addWarning(w string) {
	r.Warnings = append(r.Warnings, w)
}

// tally recomputes the status counts from the batch's current state.
func (r *Report) tally(txs []*transaction.Transaction) {
	r.Total = len(txs)
	r.Reconciled = 0
	r.ByStatus = make(map[transaction.Status]int, len(txs))

	for _, tx := range txs {
		r.ByStatus[tx.Status]++

		if tx.Reconciled {
			r.Reconciled++
		}
	}
}
