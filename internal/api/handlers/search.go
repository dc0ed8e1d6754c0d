package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
)

const searchResultLimit = 20

type SearchHandler struct {
	retriever *search.Retriever
	logger    *slog.Logger
}

func NewSearchHandler(retriever *search.Retriever, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{retriever: retriever, logger: logger}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.retriever.Retrieve(r.Context(), req.Query, searchResultLimit)
	if err != nil {
		h.logger.Error("search documents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to search documents")
		return
	}
	if results == nil {
		results = []search.Result{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})
}
