package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/sahelco/trade_ledger_app/internal/core/ports/services"
	"github.com/sahelco/trade_ledger_app/internal/dto"
	"github.com/sahelco/trade_ledger_app/internal/middleware"
)

// ledgerHandler handles HTTP requests for posting movements to the ledger.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvc
}

func newLedgerHandler(ls portssvc.LedgerSvc) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// RegisterLedgerRoutes registers routes related to ledger postings.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvc) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/postings", h.postEntries)
	}
}

// postEntries godoc
// @Summary Post a batch of ledger entries
// @Description Applies one or more signed movements atomically: either every posting lands and every balance moves, or nothing does
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Opt-in key for safe retries of the same batch"
// @Param   postings body dto.PostLedgerRequest true "Posting batch"
// @Success 201 {object} dto.ListLedgerResponse
// @Failure 400 {object} map[string]string "Invalid batch (zero amount, unknown reason, malformed account ID)"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "A target account does not exist or is deleted"
// @Failure 409 {object} map[string]string "Persistent write conflict; resubmit the batch"
// @Failure 500 {object} map[string]string "Failed to post entries"
// @Security BearerAuth
// @Router /ledger/postings [post]
func (h *ledgerHandler) postEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	posterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Poster user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("poster_user_id", posterUserID))
	logger.Info("Received request to post ledger entries", slog.Int("posting_count", len(req.Postings)))

	entries, err := h.ledgerService.PostMany(c.Request.Context(), req.ToDomainPostings(), posterUserID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to post entries")
		return
	}

	logger.Info("Ledger entries posted successfully", slog.Int("entry_count", len(entries)))
	c.JSON(http.StatusCreated, dto.ListLedgerResponse{Entries: dto.ToLedgerEntryResponses(entries)})
}
