package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	portssvc "github.com/SscSPs/ledger-posting/internal/core/ports/services"
	"github.com/SscSPs/ledger-posting/internal/dto"
	"github.com/SscSPs/ledger-posting/internal/middleware"
)

// postingHandler exposes document validation and posting.
type postingHandler struct {
	postingService portssvc.PostingSvcFacade
}

func newPostingHandler(ps portssvc.PostingSvcFacade) *postingHandler {
	return &postingHandler{
		postingService: ps,
	}
}

// documentValidator decodes one kind of document from the request body and validates it.
// It returns false after answering the request itself.
type documentValidator func(c *gin.Context, workplaceID, actorID string, role domain.UserWorkplaceRole) (domain.ValidationResult, bool)

// registerPostingRoutes registers the posting and journal routes of a workplace.
func registerPostingRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade) {
	h := newPostingHandler(postingService)

	documents := map[string]documentValidator{
		"invoices": h.invoice,
		"bills":    h.bill,
		"payments": h.payment,
		"journals": h.journal,
	}
	postingGroup := rg.Group("/postings")
	for path, validate := range documents {
		postingGroup.POST("/"+path+"/validate", h.validateOnly(validate))
		postingGroup.POST("/"+path, h.validateAndPost(validate))
	}

	journalGroup := rg.Group("/journals")
	{
		journalGroup.GET("/:journal_id", h.getJournal)
		journalGroup.POST("/:journal_id/reverse", h.reverseJournal)
	}
}

func bindDocument(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind posting request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *postingHandler) invoice(c *gin.Context, workplaceID, actorID string, _ domain.UserWorkplaceRole) (domain.ValidationResult, bool) {
	var req dto.InvoicePostingRequest
	if !bindDocument(c, &req) {
		return domain.ValidationResult{}, false
	}
	return h.postingService.ValidateInvoicePosting(c.Request.Context(), req.ToDomain(workplaceID, actorID)), true
}

func (h *postingHandler) bill(c *gin.Context, workplaceID, actorID string, _ domain.UserWorkplaceRole) (domain.ValidationResult, bool) {
	var req dto.BillPostingRequest
	if !bindDocument(c, &req) {
		return domain.ValidationResult{}, false
	}
	return h.postingService.ValidateBillPosting(c.Request.Context(), req.ToDomain(workplaceID, actorID)), true
}

func (h *postingHandler) payment(c *gin.Context, workplaceID, actorID string, role domain.UserWorkplaceRole) (domain.ValidationResult, bool) {
	var req dto.PaymentPostingRequest
	if !bindDocument(c, &req) {
		return domain.ValidationResult{}, false
	}
	return h.postingService.ValidatePaymentProcessingEnhanced(c.Request.Context(), req.ToDomain(workplaceID), actorID, role, req.BaseCurrency), true
}

func (h *postingHandler) journal(c *gin.Context, workplaceID, actorID string, _ domain.UserWorkplaceRole) (domain.ValidationResult, bool) {
	var req dto.JournalPostingRequest
	if !bindDocument(c, &req) {
		return domain.ValidationResult{}, false
	}
	return h.postingService.ValidateJournalPosting(c.Request.Context(), req.ToDomain(workplaceID, actorID)), true
}

// validateOnly answers POST /workplaces/{workplace_id}/postings/{document}/validate.
// Nothing is written. A rejected document is answered with 422 and the full error list.
func (h *postingHandler) validateOnly(validate documentValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		workplaceID := c.Param("workplace_id")
		actorID, role, ok := actorFromContext(c)
		if !ok {
			return
		}

		result, ok := validate(c, workplaceID, actorID, role)
		if !ok {
			return
		}
		if !result.IsValid() {
			logger.Info("Document rejected", slog.String("stage", string(result.Stage)), slog.Int("error_count", len(result.Errors)))
			c.JSON(http.StatusUnprocessableEntity, dto.ToPostingResponse(result, nil))
			return
		}
		c.JSON(http.StatusOK, dto.ToPostingResponse(result, nil))
	}
}

// validateAndPost answers POST /workplaces/{workplace_id}/postings/{document}.
// A valid document is committed and answered with 201, or 200 when the same source
// document was posted before.
func (h *postingHandler) validateAndPost(validate documentValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		workplaceID := c.Param("workplace_id")
		actorID, role, ok := actorFromContext(c)
		if !ok || !requirePostingRole(c, role) {
			return
		}

		result, ok := validate(c, workplaceID, actorID, role)
		if !ok {
			return
		}
		h.post(c, logger, result)
	}
}

func (h *postingHandler) post(c *gin.Context, logger *slog.Logger, result domain.ValidationResult) {
	if !result.IsValid() {
		logger.Info("Document rejected", slog.String("stage", string(result.Stage)), slog.Int("error_count", len(result.Errors)))
		c.JSON(http.StatusUnprocessableEntity, dto.ToPostingResponse(result, nil))
		return
	}

	journal, err := h.postingService.Post(c.Request.Context(), result)
	if err != nil {
		respondError(c, err, "post journal")
		return
	}

	resp := dto.ToPostingResponse(result, journal)
	if resp.AlreadyPosted {
		logger.Info("Document already posted", slog.String("journal_id", journal.JournalID))
		c.JSON(http.StatusOK, resp)
		return
	}
	logger.Info("Document posted", slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, resp)
}

// getJournal answers GET /workplaces/{workplace_id}/journals/{journal_id}.
func (h *postingHandler) getJournal(c *gin.Context) {
	if _, _, ok := actorFromContext(c); !ok {
		return
	}
	journal, err := h.postingService.GetJournal(c.Request.Context(), c.Param("workplace_id"), c.Param("journal_id"))
	if err != nil {
		respondError(c, err, "get journal")
		return
	}
	c.JSON(http.StatusOK, journal)
}

// reverseJournal answers POST /workplaces/{workplace_id}/journals/{journal_id}/reverse.
// The reversal is posted and the original marked REVERSED in the same commit.
func (h *postingHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, role, ok := actorFromContext(c)
	if !ok || !requirePostingRole(c, role) {
		return
	}

	var req dto.ReverseJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind reversal request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	var reversalDate time.Time
	if req.ReversalDate != nil {
		reversalDate = req.ReversalDate.Time
	}

	original, err := h.postingService.GetJournal(c.Request.Context(), c.Param("workplace_id"), c.Param("journal_id"))
	if err != nil {
		respondError(c, err, "get journal")
		return
	}
	logger = logger.With(slog.String("original_journal_id", original.JournalID))
	h.post(c, logger, h.postingService.ReverseJournal(c.Request.Context(), *original, actorID, reversalDate))
}
