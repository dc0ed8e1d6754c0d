package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/qa"
)

type QAHandler struct {
	synthesizer *qa.Synthesizer
	history     *qa.History
	historyCap  int
	logger      *slog.Logger
}

func NewQAHandler(syn *qa.Synthesizer, history *qa.History, historyCap int, logger *slog.Logger) *QAHandler {
	return &QAHandler{synthesizer: syn, history: history, historyCap: historyCap, logger: logger}
}

func (h *QAHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ans, err := h.synthesizer.Ask(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("answer question", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *QAHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.Recent(r.Context(), h.historyCap)
	if err != nil {
		h.logger.Error("get qa history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get Q&A history")
		return
	}
	if entries == nil {
		entries = []models.QAHistory{}
	}
	writeJSON(w, http.StatusOK, entries)
}
