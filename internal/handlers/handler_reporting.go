package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/dto"
	"github.com/SscSPs/ledger-posting/internal/middleware"
	"github.com/SscSPs/ledger-posting/internal/utils/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportingHandler handles HTTP requests related to financial reports
type reportingHandler struct {
	reportingService portssvc.ReportingService
	journalQuery     portsrepo.PostedJournalReader
	now              func() time.Time
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(rs portssvc.ReportingService, query portsrepo.PostedJournalReader) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
		journalQuery:     query,
		now:              time.Now,
	}
}

// registerReportingRoutes registers routes related to financial reports
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService, query portsrepo.PostedJournalReader) {
	h := newReportingHandler(reportingService, query)

	// Routes for reports are nested under a specific workplace
	reportingGroup := rg.Group("/reports")
	{
		reportingGroup.GET("/trial-balance", h.getTrialBalance)
		reportingGroup.GET("/profit-and-loss", h.getProfitAndLoss)
		reportingGroup.GET("/balance-sheet", h.getBalanceSheet)
	}
}

// reportParams binds the report query string, answering 400 when it is malformed.
func (h *reportingHandler) reportParams(c *gin.Context) (domain.ReportParams, dto.ReportQuery, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, _, ok := actorFromContext(c); !ok {
		return domain.ReportParams{}, dto.ReportQuery{}, false
	}

	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Invalid report query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return domain.ReportParams{}, query, false
	}
	params, err := query.ToReportParams(c.Param("workplace_id"), h.now())
	if err != nil {
		logger.Warn("Invalid report query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return domain.ReportParams{}, query, false
	}
	return params, query, true
}

// getTrialBalance answers GET /workplaces/{workplace_id}/reports/trial-balance.
// Query: from, to (YYYY-MM-DD, to defaults to today), displayCurrency, displayRate and
// format=xlsx for a spreadsheet download.
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	params, query, ok := h.reportParams(c)
	if !ok {
		return
	}
	logger = logger.With(
		slog.String("workplace_id", params.WorkplaceID),
		slog.String("to", dto.FormatDate(params.To)),
	)
	logger.Info("Received request to generate trial balance report")

	result, err := h.reportingService.GenerateTrialBalance(c.Request.Context(), params, h.journalQuery)
	if err != nil {
		respondError(c, err, "generate trial balance report")
		return
	}

	if query.Format == dto.FormatXLSX {
		content, err := export.ExportTrialBalanceXLSX(result)
		if err != nil {
			logger.Error("Failed to export trial balance", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export trial balance report"})
			return
		}
		filename := fmt.Sprintf("trial-balance-%s-%s.xlsx", params.WorkplaceID, dto.FormatDate(params.To))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, xlsxContentType, content)
		return
	}

	logger.Info("Trial balance report generated successfully", slog.Int("row_count", len(result.Rows)))
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(result))
}

// getProfitAndLoss answers GET /workplaces/{workplace_id}/reports/profit-and-loss.
func (h *reportingHandler) getProfitAndLoss(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	params, _, ok := h.reportParams(c)
	if !ok {
		return
	}

	report, err := h.reportingService.ProfitAndLoss(c.Request.Context(), params, h.journalQuery)
	if err != nil {
		respondError(c, err, "generate profit and loss report")
		return
	}

	logger.Info("Profit and loss report generated successfully",
		slog.String("workplace_id", params.WorkplaceID),
		slog.Int("revenue_accounts", len(report.Revenue)),
		slog.Int("expense_accounts", len(report.Expenses)))
	c.JSON(http.StatusOK, dto.ToProfitAndLossResponse(report))
}

// getBalanceSheet answers GET /workplaces/{workplace_id}/reports/balance-sheet?asOf=YYYY-MM-DD.
func (h *reportingHandler) getBalanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	params, _, ok := h.reportParams(c)
	if !ok {
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), params, h.journalQuery)
	if err != nil {
		respondError(c, err, "generate balance sheet report")
		return
	}

	logger.Info("Balance sheet report generated successfully",
		slog.String("workplace_id", params.WorkplaceID),
		slog.Bool("is_balanced", report.IsBalanced))
	c.JSON(http.StatusOK, dto.ToBalanceSheetResponse(report))
}
