package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/gin-gonic/gin"
)

type reportAggregator interface {
	Daily(ctx context.Context, date string) (*domain.DailyReport, error)
	Range(ctx context.Context, startDate, endDate string) (*domain.RangeReport, error)
	Users(ctx context.Context, role string) (*domain.UserReport, error)
}

type ReportHandler struct {
	reports reportAggregator
	logger  *slog.Logger
}

func NewReportHandler(reports reportAggregator, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger.With("component", "report_handler")}
}

// GET /reports/daily?date=YYYY-MM-DD
func (h *ReportHandler) Daily(c *gin.Context) {
	r, err := h.reports.Daily(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, "daily report", err)
		return
	}
	c.JSON(http.StatusOK, toDailyReportResponse(r))
}

// GET /reports/range?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *ReportHandler) Range(c *gin.Context) {
	r, err := h.reports.Range(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, h.logger, "range report", err)
		return
	}
	c.JSON(http.StatusOK, toRangeReportResponse(r))
}

// GET /reports/users?role=donor|receiver|admin|all
func (h *ReportHandler) Users(c *gin.Context) {
	r, err := h.reports.Users(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, h.logger, "user report", err)
		return
	}
	c.JSON(http.StatusOK, toUserReportResponse(r))
}
