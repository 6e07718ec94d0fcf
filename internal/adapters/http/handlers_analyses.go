package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing claims")
		return
	}

	records, err := h.service.ListAnalyses(r.Context(), claims.UserID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_analyses", err)
		return
	}
	writeSuccess(w, http.StatusOK, records)
}

func (h *Handler) listFileAnalyses(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing claims")
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "file_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid file id")
		return
	}

	records, err := h.service.ListFileAnalyses(r.Context(), claims.UserID, fileID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_file_analyses", err)
		return
	}
	writeSuccess(w, http.StatusOK, records)
}
