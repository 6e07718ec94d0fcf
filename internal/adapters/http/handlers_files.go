package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/application"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// maxUploadBytes caps multipart bodies before they reach disk.
const maxUploadBytes = 100 << 20

func (h *Handler) signURL(w http.ResponseWriter, r *http.Request) {
	var req application.SignURLRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	res, err := h.service.IssueCapability(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "sign_url", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// capabilityUpload is guarded by the signed URL itself, not by a session
// token. The canonical URL is rebuilt from the exact request URI, so any
// mutation of the query string misses the cache before signature checks run.
func (h *Handler) capabilityUpload(w http.ResponseWriter, r *http.Request) {
	capability, err := h.capabilityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	view, err := h.service.AcceptUpload(r.Context(), capability, application.UploadInput{
		Content:      file,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "capability_upload", err)
		return
	}
	writeSuccess(w, http.StatusCreated, view)
}

func (h *Handler) capabilityFromRequest(r *http.Request) (application.CapabilityRequest, error) {
	query := r.URL.Query()
	subjectID, err := uuid.Parse(query.Get("uid"))
	if err != nil {
		return application.CapabilityRequest{}, fmt.Errorf("invalid uid")
	}
	op, ok := domain.ParseOperation(query.Get("op"))
	if !ok {
		return application.CapabilityRequest{}, fmt.Errorf("invalid op")
	}
	exp, err := strconv.ParseInt(query.Get("exp"), 10, 64)
	if err != nil {
		return application.CapabilityRequest{}, fmt.Errorf("invalid exp")
	}
	resourcePath := query.Get("path")
	signature := query.Get("signature")
	if resourcePath == "" || signature == "" {
		return application.CapabilityRequest{}, fmt.Errorf("path and signature are required")
	}

	return application.CapabilityRequest{
		SubjectID:    subjectID,
		Path:         resourcePath,
		Operation:    op,
		Exp:          exp,
		Signature:    signature,
		CanonicalURL: h.publicBaseURL + r.URL.RequestURI(),
	}, nil
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing claims")
		return
	}

	files, err := h.service.ListFiles(r.Context(), claims.UserID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_files", err)
		return
	}
	writeSuccess(w, http.StatusOK, files)
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.service.GetFile(r.Context(), claims.UserID, fileID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_file", err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

type downloadOwnBody struct {
	FileID      uuid.UUID `json:"file_id"`
	StoragePath string    `json:"storage_path"`
}

func (h *Handler) downloadOwn(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing claims")
		return
	}
	var body downloadOwnBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	content, view, err := h.service.DownloadOwn(r.Context(), application.DownloadOwnRequest{
		OwnerID:     claims.UserID,
		FileID:      body.FileID,
		StoragePath: body.StoragePath,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "download_own", err)
		return
	}
	defer content.Close()
	streamFile(w, view, content)
}

func (h *Handler) downloadShared(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileID, err := uuid.Parse(query.Get("file_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid file id")
		return
	}

	content, view, err := h.service.DownloadShared(r.Context(), application.ShareLinkRequest{
		FileID:       fileID,
		FilePath:     query.Get("file_path"),
		GranteeEmail: query.Get("grantee_email"),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "download_shared", err)
		return
	}
	defer content.Close()
	streamFile(w, view, content)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
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
	storagePath := strings.TrimSpace(r.URL.Query().Get("file_path"))
	if storagePath == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "file_path query parameter is required")
		return
	}

	if err := h.service.DeleteFile(r.Context(), claims.UserID, fileID, storagePath); err != nil {
		writeMappedError(r.Context(), w, "delete_file", err)
		return
	}
	writeMessage(w, http.StatusOK, "file deleted")
}

func streamFile(w http.ResponseWriter, view application.FileView, content io.Reader) {
	contentType := view.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.OriginalName))
	if view.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(view.SizeBytes, 10))
	}
	_, _ = io.Copy(w, content)
}
