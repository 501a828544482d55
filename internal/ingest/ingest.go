package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/ledgerpilot/ledgerpilot/internal/encoding"
)

// MediaType identifies the accepted bank-feed formats.
type MediaType string

const (
	MediaCSV  MediaType = "csv"
	MediaJSON MediaType = "json"
)

var (
	// ErrInvalidFormat means the payload could not be framed at all
	// (broken CSV quoting, non-array JSON). Fatal to the request.
	ErrInvalidFormat = errors.New("invalid bank feed format")

	// ErrUnsupportedType means the media type is neither CSV nor JSON.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// RawRecord is one normalized bank-feed line, ready to become a transaction.
type RawRecord struct {
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string
	Party     string
	Reference string
	Category  string
}

// Warning reports a record that was dropped without failing the whole feed.
type Warning struct {
	Row    int
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d skipped: %s", w.Row, w.Reason)
}

// Ingestor parses uploaded bank-feed payloads into raw records. It is a pure
// transform: no storage or network access.
type Ingestor struct{}

func New() *Ingestor {
	return &Ingestor{}
}

// Ingest parses the payload. Malformed individual records are dropped and
// reported as warnings; only unframeable payloads fail.
func (i *Ingestor) Ingest(payload []byte, media MediaType) ([]RawRecord, []Warning, error) {
	switch media {
	case MediaCSV:
		return parseCSV(payload)
	case MediaJSON:
		return parseJSON(payload)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedType, media)
	}
}

// Column names recognized in CSV headers (case-insensitive).
const (
	colDate     = "date"
	colAmount   = "amount"
	colCurrency = "currency"
	colParty    = "party"
	colRef      = "reference"
	colFeedID   = "transaction_id"
	colCategory = "category"
)

func parseCSV(payload []byte) ([]RawRecord, []Warning, error) {
	utf8r, err := enc.NewUTF8Reader(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: detect encoding: %v", ErrInvalidFormat, err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = idx
	}

	for _, required := range []string{colDate, colAmount, colParty} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: missing %q column", ErrInvalidFormat, required)
		}
	}

	var (
		records  []RawRecord
		warnings []Warning
	)

	rowNum := 1 // 1-based, header is row 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			// Framing failure: the stream itself is broken, not just a row.
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		rowNum++

		rec, reason := rowToRecord(row, cols)
		if reason != "" {
			warnings = append(warnings, Warning{Row: rowNum, Reason: reason})
			continue
		}

		records = append(records, rec)
	}

	return records, warnings, nil
}

// rowToRecord converts a CSV row using the header map. A non-empty reason
// means the row must be skipped.
func rowToRecord(row []string, cols map[string]int) (RawRecord, string) {
	date := cellValue(row, cols, colDate)
	if date == "" {
		return RawRecord{}, "missing date"
	}

	parsedDate, ok := parseDate(date)
	if !ok {
		return RawRecord{}, fmt.Sprintf("unparseable date %q", date)
	}

	party := cellValue(row, cols, colParty)
	if party == "" {
		return RawRecord{}, "missing party"
	}

	amountStr := cellValue(row, cols, colAmount)
	if amountStr == "" {
		return RawRecord{}, "missing amount"
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return RawRecord{}, fmt.Sprintf("unparseable amount %q", amountStr)
	}

	reference := cellValue(row, cols, colRef)
	if reference == "" {
		// Feeds often carry their own line identifier; keep it as the
		// reference when no explicit one is present.
		reference = cellValue(row, cols, colFeedID)
	}

	return RawRecord{
		Date:      parsedDate,
		Amount:    amount,
		Currency:  cellValue(row, cols, colCurrency),
		Party:     party,
		Reference: reference,
		Category:  cellValue(row, cols, colCategory),
	}, ""
}

type jsonRecord struct {
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Party         string          `json:"party"`
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transaction_id"`
	Category      string          `json:"category"`
}

func parseJSON(payload []byte) ([]RawRecord, []Warning, error) {
	var raw []jsonRecord
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: expected an array of records: %v", ErrInvalidFormat, err)
	}

	var (
		records  []RawRecord
		warnings []Warning
	)

	for idx, r := range raw {
		rowNum := idx + 1

		if r.Date == "" {
			warnings = append(warnings, Warning{Row: rowNum, Reason: "missing date"})
			continue
		}

		date, ok := parseDate(r.Date)
		if !ok {
			warnings = append(warnings, Warning{Row: rowNum, Reason: fmt.Sprintf("unparseable date %q", r.Date)})
			continue
		}

		if r.Party == "" {
			warnings = append(warnings, Warning{Row: rowNum, Reason: "missing party"})
			continue
		}

		reference := r.Reference
		if reference == "" {
			reference = r.TransactionID
		}

		records = append(records, RawRecord{
			Date:      date,
			Amount:    r.Amount,
			Currency:  r.Currency,
			Party:     r.Party,
			Reference: reference,
			Category:  r.Category,
		})
	}

	return records, warnings, nil
}

// dateFormats are tried in order. Bank exports are inconsistent about this.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cellValue(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
