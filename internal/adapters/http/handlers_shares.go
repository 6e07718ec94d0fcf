package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/application"
)

type shareBody struct {
	EmailToShareWith string    `json:"emailToShareWith"`
	FileID           uuid.UUID `json:"fileID"`
	FilePath         string    `json:"filePath"`
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing claims")
		return
	}
	var body shareBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	res, err := h.service.Share(r.Context(), application.ShareRequest{
		GranterID:    claims.UserID,
		GranteeEmail: body.EmailToShareWith,
		FileID:       body.FileID,
		FilePath:     body.FilePath,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "share", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

type revokeBody struct {
	SharedWithEmail string    `json:"sharedWithEmail"`
	SharedWithID    uuid.UUID `json:"sharedWithID"`
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing claims")
		return
	}
	var body revokeBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.service.Revoke(r.Context(), application.RevokeRequest{
		GranterID:    claims.UserID,
		GranteeEmail: body.SharedWithEmail,
		GranteeID:    body.SharedWithID,
	}); err != nil {
		writeMappedError(r.Context(), w, "revoke", err)
		return
	}
	writeMessage(w, http.StatusOK, "share revoked")
}
