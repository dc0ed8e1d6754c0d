package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
)

type DashboardHandler struct {
	svc    *document.Service
	logger *slog.Logger
}

func NewDashboardHandler(svc *document.Service, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get dashboard stats")
		return
	}
	if stats.RecentDocuments == nil {
		stats.RecentDocuments = []models.Document{}
	}
	writeJSON(w, http.StatusOK, stats)
}
