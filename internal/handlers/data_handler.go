package handlers

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/exporter"
	"fintrack/internal/importer"
	"fintrack/internal/services"
)

// maxImportBytes caps the size of an import body.
const maxImportBytes = 5 << 20

// DataHandler handles exports and imports.
type DataHandler struct {
	exportService      services.ExportServicer
	transactionService services.TransactionServicer
	parser             *importer.Parser
	now                func() time.Time
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(exportService services.ExportServicer, transactionService services.TransactionServicer, parser *importer.Parser) *DataHandler {
	return &DataHandler{
		exportService:      exportService,
		transactionService: transactionService,
		parser:             parser,
		now:                time.Now,
	}
}

// ExportTransactions handles downloading transactions
// @Summary     Export transactions
// @Description Download transactions as CSV (date,title,category,type,amount) or as a JSON array the import endpoint accepts
// @Tags        data
// @Produce     text/csv
// @Produce     json
// @Security    BearerAuth
// @Param       format   query string false "csv (default) or json"
// @Param       from     query string false "Earliest transaction date (YYYY-MM-DD)"
// @Param       to       query string false "Latest transaction date (YYYY-MM-DD)"
// @Param       type     query string false "income or expense"
// @Param       category query string false "Exact category, case-insensitive"
// @Success     200 {file} file "Export file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /export/transactions [get]
func (h *DataHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	format, err := exporter.ParseFormat(c.Query("format"))
	if err != nil {
		respondWithError(c, apperrors.ErrUnsupportedFormat)
		return
	}
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.ExportTransactions(c.Request.Context(), userID, &buf, format, filter); err != nil {
		respondWithError(c, err)
		return
	}

	h.attach(c, exporter.Filename("transactions", format, h.now()), format, buf.Bytes())
}

// ExportGoals handles downloading savings goals
// @Summary     Export goals
// @Description Download savings goals with their progress as CSV
// @Tags        data
// @Produce     text/csv
// @Security    BearerAuth
// @Success     200 {file} file "Export file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /export/goals [get]
func (h *DataHandler) ExportGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.ExportGoals(c.Request.Context(), userID, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	h.attach(c, exporter.Filename("goals", exporter.FormatCSV, h.now()), exporter.FormatCSV, buf.Bytes())
}

func (h *DataHandler) attach(c *gin.Context, filename string, format exporter.Format, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, format.ContentType(), body)
}

// ImportTransactions handles uploading transactions
// @Summary     Import transactions
// @Description Accepts a JSON array of {date, title, category, type, amount} objects, or CSV with the export's header when sent as text/csv. Invalid rows are skipped and reported.
// @Tags        data
// @Accept      json
// @Accept      text/csv
// @Produce     json
// @Security    BearerAuth
// @Success     201 {object} services.ImportResult "Import summary"
// @Failure     400 {object} ErrorResponse "Body is not a JSON array or a CSV with the expected header"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /import/transactions [post]
func (h *DataHandler) ImportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	var parsed importer.Result
	if c.ContentType() == "text/csv" {
		parsed, err = h.parser.ParseCSV(body)
	} else {
		parsed, err = h.parser.ParseJSON(body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidImport, "Import body is too large"))
			return
		}
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidImport, err.Error()))
		return
	}

	result, err := h.transactionService.ImportTransactions(c.Request.Context(), userID, parsed)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
