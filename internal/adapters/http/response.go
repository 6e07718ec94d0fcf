package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Every handler reply is wrapped in one of three envelopes: data-bearing
// success, message-only success, or error. Capability URLs and file bytes
// ride inside data like everything else; only raw download streams bypass
// the envelope.
type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type messageEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, successEnvelope{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageEnvelope{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{Status: "error", Code: code, Message: message})
}

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", "Mini-S3-Bucket",
		"module", "http",
		"layer", "adapter",
	)
}

// logHTTPOperationError records one refused or failed operation alongside
// the envelope already sent. Client-caused refusals (bad capability, missing
// grant, quarantine) log at warn; only 5xx means the vault itself broke.
func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", statusCode,
		"error_code", code,
		"message", message,
		"request_id", requestIDFromContext(ctx),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if statusCode >= 500 {
		httpLogger().ErrorContext(ctx, "http operation failed", fields...)
		return
	}
	httpLogger().WarnContext(ctx, "http operation failed", fields...)
}
