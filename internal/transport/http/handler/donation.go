package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
	"github.com/gin-gonic/gin"
)

type donationLedger interface {
	Record(ctx context.Context, in usecase.RecordDonationInput) (*domain.DonationRecord, error)
	ListForIdentity(ctx context.Context, identityID string) ([]*domain.DonationRecord, error)
	ListAll(ctx context.Context) ([]*domain.DonationRecord, error)
}

type DonationHandler struct {
	ledger donationLedger
	logger *slog.Logger
}

func NewDonationHandler(ledger donationLedger, logger *slog.Logger) *DonationHandler {
	return &DonationHandler{ledger: ledger, logger: logger.With("component", "donation_handler")}
}

type recordDonationRequest struct {
	BloodType domain.BloodType      `json:"bloodType" binding:"required"`
	Quantity  int                   `json:"quantity"  binding:"required"`
	Status    domain.DonationStatus `json:"status"    binding:"required,oneof=donated received"`
	Notes     *string               `json:"notes"`
}

func (h *DonationHandler) Create(c *gin.Context) {
	var req recordDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.ledger.Record(c.Request.Context(), usecase.RecordDonationInput{
		IdentityID: c.GetString("identityID"),
		BloodType:  req.BloodType,
		Quantity:   req.Quantity,
		Status:     req.Status,
		Note:       req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, "record donation", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Donation recorded successfully",
		"donation": toDonationResponse(d),
	})
}

// List returns the caller's own records.
func (h *DonationHandler) List(c *gin.Context) {
	records, err := h.ledger.ListForIdentity(c.Request.Context(), c.GetString("identityID"))
	if err != nil {
		respondError(c, h.logger, "list donations", err)
		return
	}
	c.JSON(http.StatusOK, toDonationResponses(records))
}

// ListAll is admin-only; the router gates it.
func (h *DonationHandler) ListAll(c *gin.Context) {
	records, err := h.ledger.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list all donations", err)
		return
	}
	c.JSON(http.StatusOK, toDonationResponses(records))
}
