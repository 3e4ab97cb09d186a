// Package exporter writes transactions and goals in the download formats.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/types"
)

// Format is a download format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json"; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// TransactionHeader is the column order of the transactions CSV.
var TransactionHeader = []string{"date", "title", "category", "type", "amount"}

// GoalHeader is the column order of the goals CSV.
var GoalHeader = []string{"goal_name", "priority", "target_amount", "saved_amount", "percent", "status", "target_date", "created_at"}

// Transaction is one exported transaction. Its JSON form is accepted by the importer.
type Transaction struct {
	Date     time.Time       `json:"-"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Type     string          `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
}

// MarshalJSON renders the date as YYYY-MM-DD and the amount as a number.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	return json.Marshal(struct {
		Date   string      `json:"date"`
		Amount json.Number `json:"amount"`
		alias
	}{Date: types.FormatDate(t.Date), Amount: json.Number(t.Amount.StringFixed(2)), alias: alias(t)})
}

// Goal is one exported savings goal with its derived progress.
type Goal struct {
	Name         string
	Priority     string
	TargetAmount decimal.Decimal
	SavedAmount  decimal.Decimal
	Percent      float64
	Status       string
	TargetDate   *time.Time
	CreatedAt    time.Time
}

// WriteTransactions writes rows in format f.
func WriteTransactions(w io.Writer, f Format, rows []Transaction) error {
	if f == FormatJSON {
		if rows == nil {
			rows = []Transaction{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionHeader); err != nil {
		return err
	}
	for _, t := range rows {
		record := []string{
			types.FormatDate(t.Date),
			t.Title,
			t.Category,
			t.Type,
			t.Amount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGoals writes goals as CSV.
func WriteGoals(w io.Writer, goals []Goal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GoalHeader); err != nil {
		return err
	}
	for _, g := range goals {
		targetDate := ""
		if g.TargetDate != nil {
			targetDate = types.FormatDate(*g.TargetDate)
		}
		record := []string{
			g.Name,
			g.Priority,
			g.TargetAmount.StringFixed(2),
			g.SavedAmount.StringFixed(2),
			strconv.FormatFloat(g.Percent, 'f', 1, 64),
			g.Status,
			targetDate,
			g.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns the attachment name for an export of kind taken at now.
func Filename(kind string, f Format, now time.Time) string {
	return fmt.Sprintf("fintrack-%s-%s.%s", kind, types.FormatDate(now), f)
}
