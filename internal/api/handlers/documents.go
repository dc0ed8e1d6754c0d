package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/insight"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/models"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/qa"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/queue"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":   true,
	"application/vnd.ms-excel":                                            true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/csv":   true,
	"text/plain": true,
	"image/png":  true,
	"image/jpeg": true,
}

type DocumentHandler struct {
	svc         *document.Service
	queueClient *queue.Client
	insights    *insight.Service
	synthesizer *qa.Synthesizer
	index       search.Indexer
	maxUpload   int64
	logger      *slog.Logger
}

func NewDocumentHandler(svc *document.Service, qc *queue.Client, ins *insight.Service, syn *qa.Synthesizer, idx search.Indexer, maxUpload int64, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		svc:         svc,
		queueClient: qc,
		insights:    ins,
		synthesizer: syn,
		index:       idx,
		maxUpload:   maxUpload,
		logger:      logger,
	}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	fileType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[fileType] {
		writeError(w, http.StatusBadRequest, "invalid file type")
		return
	}

	doc, err := h.svc.Upload(r.Context(), document.UploadRequest{
		Filename: header.Filename,
		FileType: fileType,
		FileSize: header.Size,
		Data:     file,
	})
	if err != nil {
		h.logger.Error("upload document", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload document")
		return
	}

	if err := h.queueClient.EnqueueDocumentProcess(queue.DocumentProcessPayload{DocumentID: doc.ID}); err != nil {
		// The document stays pending and can be enqueued again later.
		h.logger.Error("enqueue document processing", "document_id", doc.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := h.svc.List(r.Context(), document.ListFilters{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		h.logger.Error("list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get documents")
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": len(docs)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("get document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}

	pages, err := h.svc.GetPages(r.Context(), id)
	if err != nil {
		h.logger.Error("get document pages", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}
	if pages == nil {
		pages = []models.DocumentPage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"document": doc, "pages": pages})
}

func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("get document status", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get document status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"processingStatus": doc.ProcessingStatus,
		"errorMessage":     doc.ErrorMessage,
	})
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, true)
}

// View streams the original file inline for the document viewer.
func (h *DocumentHandler) View(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, false)
}

func (h *DocumentHandler) serveFile(w http.ResponseWriter, r *http.Request, attachment bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	doc, rc, err := h.svc.Download(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("download document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to download document")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.FileType)
	if attachment {
		w.Header().Set("Content-Disposition", `attachment; filename="`+doc.OriginalFilename+`"`)
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("stream document", "document_id", id, "error", err)
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	chunkIDs, err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("delete document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	if err := h.index.DeleteChunks(chunkIDs); err != nil {
		h.logger.Error("purge index", "document_id", id, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("get document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate summary")
		return
	}

	if doc.ProcessingStatus != models.StatusCompleted {
		writeError(w, http.StatusBadRequest, "document is not fully processed yet")
		return
	}
	if doc.FullText == nil || *doc.FullText == "" {
		writeError(w, http.StatusBadRequest, "no text content available")
		return
	}

	sum, err := h.insights.Summarize(r.Context(), doc)
	if err != nil {
		h.logger.Error("summarize document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate summary")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *DocumentHandler) PageInsight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	var req struct {
		PageNumber int `json:"pageNumber"`
	}
	if err := decodeJSON(r, &req); err != nil || req.PageNumber <= 0 {
		writeError(w, http.StatusBadRequest, "pageNumber is required")
		return
	}

	ins, err := h.insights.PageInsight(r.Context(), id, req.PageNumber)
	if err != nil {
		h.logger.Error("page insight", "document_id", id, "page", req.PageNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate page insight")
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (h *DocumentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("get document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	pages, err := h.svc.GetPages(r.Context(), id)
	if err != nil {
		h.logger.Error("get document pages", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	ans, err := h.synthesizer.AskDocument(r.Context(), doc, pages, req.Question)
	if err != nil {
		h.logger.Error("answer document question", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	writeJSON(w, http.StatusOK, ans)
}
