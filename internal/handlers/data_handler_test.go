package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/exporter"
	"fintrack/internal/importer"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

func setupDataRouter(handler *DataHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/export/transactions", handler.ExportTransactions)
	auth.GET("/export/goals", handler.ExportGoals)
	auth.POST("/import/transactions", handler.ImportTransactions)
	return r
}

func newTestDataHandler(export *mockExportService, tx *mockTransactionService) *DataHandler {
	h := NewDataHandler(export, tx, importer.NewParser(validator.New()))
	h.now = func() time.Time { return time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC) }
	return h
}

func TestDataHandler_ExportTransactions(t *testing.T) {
	t.Run("streams CSV as an attachment", func(t *testing.T) {
		var gotFormat exporter.Format
		export := &mockExportService{
			exportTransactionsFn: func(_ string, w io.Writer, format exporter.Format, _ services.TransactionFilter) error {
				gotFormat = format
				_, err := io.WriteString(w, "date,title,category,type,amount\n2024-05-10,Coffee,Food,expense,3.50\n")
				return err
			},
		}
		r := setupDataRouter(newTestDataHandler(export, &mockTransactionService{}))

		rec := doRequest(r, "GET", "/export/transactions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFormat != exporter.FormatCSV {
			t.Errorf("expected csv by default, got %q", gotFormat)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("expected text/csv, got %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=fintrack-transactions-2024-05-17.csv" {
			t.Errorf("unexpected Content-Disposition %q", cd)
		}
		if !strings.Contains(rec.Body.String(), "Coffee") {
			t.Errorf("expected exported row in body, got %q", rec.Body.String())
		}
	})

	t.Run("supports json", func(t *testing.T) {
		r := setupDataRouter(newTestDataHandler(&mockExportService{}, &mockTransactionService{}))

		rec := doRequest(r, "GET", "/export/transactions?format=json", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
	})

	t.Run("returns 400 on unknown format", func(t *testing.T) {
		r := setupDataRouter(newTestDataHandler(&mockExportService{}, &mockTransactionService{}))

		rec := doRequest(r, "GET", "/export/transactions?format=xlsx", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNSUPPORTED_FORMAT")
	})

	t.Run("returns a JSON error when the export fails", func(t *testing.T) {
		export := &mockExportService{
			exportTransactionsFn: func(string, io.Writer, exporter.Format, services.TransactionFilter) error { return errDB },
		}
		r := setupDataRouter(newTestDataHandler(export, &mockTransactionService{}))

		rec := doRequest(r, "GET", "/export/transactions", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Disposition") != "" {
			t.Error("expected no attachment header on failure")
		}
	})
}

func TestDataHandler_ExportGoals(t *testing.T) {
	r := setupDataRouter(newTestDataHandler(&mockExportService{}, &mockTransactionService{}))

	rec := doRequest(r, "GET", "/export/goals", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "fintrack-goals-2024-05-17.csv") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
}

func TestDataHandler_ImportTransactions(t *testing.T) {
	t.Run("imports valid rows and reports skipped ones", func(t *testing.T) {
		var got importer.Result
		tx := &mockTransactionService{
			importTransactionsFn: func(_ string, parsed importer.Result) (*services.ImportResult, error) {
				got = parsed
				return &services.ImportResult{Imported: len(parsed.Rows), Skipped: len(parsed.Warnings), Warnings: parsed.Warnings}, nil
			},
		}
		r := setupDataRouter(newTestDataHandler(&mockExportService{}, tx))

		rec := doRequest(r, "POST", "/import/transactions",
			`[{"date":"2024-05-10","title":"Coffee","category":"Food","type":"expense","amount":3.5},
			  {"date":"2024-05-11","title":"Refund","category":"Food","type":"transfer","amount":1}]`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got.Rows) != 1 || len(got.Warnings) != 1 {
			t.Fatalf("expected 1 row and 1 warning, got %d and %d", len(got.Rows), len(got.Warnings))
		}
		result := parseJSON(t, rec)
		if result["imported"] != float64(1) || result["skipped"] != float64(1) {
			t.Errorf("unexpected result %v", result)
		}
	})

	t.Run("accepts CSV", func(t *testing.T) {
		r := setupDataRouter(newTestDataHandler(&mockExportService{}, &mockTransactionService{}))

		rec := doRequestWithType(r, "POST", "/import/transactions",
			"date,title,category,type,amount\n2024-05-10,Coffee,Food,expense,3.50\n", "text/csv")

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := parseJSON(t, rec)["imported"]; got != float64(1) {
			t.Errorf("expected 1 imported, got %v", got)
		}
	})

	t.Run("returns 400 when the body is not an array", func(t *testing.T) {
		r := setupDataRouter(newTestDataHandler(&mockExportService{}, &mockTransactionService{}))

		rec := doRequest(r, "POST", "/import/transactions", `{"title":"Coffee"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_IMPORT")
	})

	t.Run("returns 400 on an unexpected CSV header", func(t *testing.T) {
		r := setupDataRouter(newTestDataHandler(&mockExportService{}, &mockTransactionService{}))

		rec := doRequestWithType(r, "POST", "/import/transactions", "when,what\n2024-05-10,Coffee\n", "text/csv")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
