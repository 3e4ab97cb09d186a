// Package importer parses transaction files uploaded by users. Rows that fail
// validation are skipped and reported; only an unreadable file is an error.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fintrack/internal/types"
)

// ErrNotArray is returned when a JSON import is not an array of objects.
var ErrNotArray = errors.New("import body must be a JSON array")

// ErrBadHeader is returned when a CSV import lacks the expected header.
var ErrBadHeader = errors.New("CSV header must be date,title,category,type,amount")

// CSVHeader is the column order shared with the CSV export.
var CSVHeader = []string{"date", "title", "category", "type", "amount"}

// Row is a validated transaction ready to be stored.
type Row struct {
	Title    string
	Amount   decimal.Decimal
	Category string
	Type     string
	Date     time.Time
}

// Warning explains why the row at Index (0-based, excluding any header) was skipped.
type Warning struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result holds the accepted rows and the warnings for the rejected ones.
type Result struct {
	Rows     []Row
	Warnings []Warning
}

type record struct {
	Title    string           `json:"title" validate:"max=255"`
	Amount   *decimal.Decimal `json:"amount" validate:"required,gte=0"`
	Category string           `json:"category" validate:"required,max=100"`
	Type     string           `json:"type" validate:"required,transaction_type"`
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
}

// Parser validates imported rows with v, which must have the custom tags
// registered.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a Parser.
func NewParser(v *validator.Validate) *Parser {
	return &Parser{validate: v}
}

// ParseJSON reads a JSON array of transaction objects.
func (p *Parser) ParseJSON(r io.Reader) (Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("reading import: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return Result{}, ErrNotArray
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	res := Result{Rows: []Row{}, Warnings: []Warning{}}
	for i, item := range raw {
		var rec record
		if err := json.Unmarshal(item, &rec); err != nil {
			res.Warnings = append(res.Warnings, Warning{Index: i, Reason: decodeReason(err)})
			continue
		}
		p.accept(&res, i, rec)
	}
	return res, nil
}

// ParseCSV reads a CSV file in the export column order, header included.
func (p *Parser) ParseCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Result{Rows: []Row{}, Warnings: []Warning{}}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading CSV header: %w", err)
	}
	if !matchesHeader(header) {
		return Result{}, ErrBadHeader
	}

	res := Result{Rows: []Row{}, Warnings: []Warning{}}
	for i := 0; ; i++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{Index: i, Reason: "unreadable line: " + err.Error()})
			continue
		}
		if len(fields) != len(CSVHeader) {
			res.Warnings = append(res.Warnings, Warning{Index: i, Reason: fmt.Sprintf("expected %d columns, got %d", len(CSVHeader), len(fields))})
			continue
		}

		rec := record{Date: fields[0], Title: fields[1], Category: fields[2], Type: fields[3]}
		if strings.TrimSpace(fields[4]) != "" {
			amount, err := decimal.NewFromString(strings.TrimSpace(fields[4]))
			if err != nil {
				res.Warnings = append(res.Warnings, Warning{Index: i, Reason: "amount is not a number"})
				continue
			}
			rec.Amount = &amount
		}
		p.accept(&res, i, rec)
	}
	return res, nil
}

func (p *Parser) accept(res *Result, index int, rec record) {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Category = strings.TrimSpace(rec.Category)
	rec.Type = strings.ToLower(strings.TrimSpace(rec.Type))
	rec.Date = strings.TrimSpace(rec.Date)

	if err := p.validate.Struct(rec); err != nil {
		res.Warnings = append(res.Warnings, Warning{Index: index, Reason: validationReason(err)})
		return
	}

	date, err := types.ParseDate(rec.Date)
	if err != nil {
		res.Warnings = append(res.Warnings, Warning{Index: index, Reason: "date must be YYYY-MM-DD"})
		return
	}

	title := rec.Title
	if title == "" {
		title = rec.Category
	}
	res.Rows = append(res.Rows, Row{
		Title:    title,
		Amount:   rec.Amount.Round(2),
		Category: rec.Category,
		Type:     rec.Type,
		Date:     date,
	})
}

func matchesHeader(header []string) bool {
	if len(header) != len(CSVHeader) {
		return false
	}
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if !strings.EqualFold(strings.TrimSpace(h), CSVHeader[i]) {
			return false
		}
	}
	return true
}

func decodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}
	if strings.Contains(err.Error(), "decimal") {
		return "amount is not a number"
	}
	return "row is not a transaction object"
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		reasons = append(reasons, fieldReason(fe))
	}
	return strings.Join(reasons, "; ")
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "max":
		return fmt.Sprintf("%s cannot be longer than %s", fe.Field(), fe.Param())
	case "transaction_type":
		return fmt.Sprintf("%s must be income or expense", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD", fe.Field())
	}
	return fmt.Sprintf("%s is not valid", fe.Field())
}
