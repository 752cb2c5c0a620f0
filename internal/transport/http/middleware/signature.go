package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mborders/logmatic"

	"github.com/agentkred/kred/internal/auth"
)

type contextKey string

const AgentIDKey contextKey = "agent_id"

const (
	HeaderAgentID   = "X-Agent-ID"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
)

// Signature authenticates a mutating request. The body is read once, checked
// against the signature and handed on unchanged.
func Signature(verifier *auth.Verifier, maxBody int64, log *logmatic.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agentID := r.Header.Get(HeaderAgentID)
			signature := r.Header.Get(HeaderSignature)
			timestamp := r.Header.Get(HeaderTimestamp)
			if agentID == "" || signature == "" || timestamp == "" {
				writeError(w, http.StatusBadRequest, "MISSING_HEADERS", "X-Agent-ID, X-Signature and X-Timestamp are required")
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body is too large")
					return
				}
				writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			id, err := verifier.Verify(r.Context(), auth.SignedRequest{
				Method:    r.Method,
				Path:      r.URL.Path,
				Timestamp: timestamp,
				Body:      body,
				AgentID:   agentID,
				Signature: signature,
			})
			if err != nil {
				status, code := authStatus(err)
				if status == http.StatusInternalServerError {
					log.Error("auth: %s %s agent=%s: %v", r.Method, r.URL.Path, agentID, err)
					writeError(w, status, code, "Something went wrong")
					return
				}
				log.Warn("auth: rejected %s %s agent=%s: %v", r.Method, r.URL.Path, agentID, err)
				writeError(w, status, code, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), AgentIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidTimestamp):
		return http.StatusBadRequest, "INVALID_TIMESTAMP"
	case errors.Is(err, auth.ErrTimestampExpired):
		return http.StatusForbidden, "TIMESTAMP_EXPIRED"
	case errors.Is(err, auth.ErrInvalidBody):
		return http.StatusBadRequest, "INVALID_JSON"
	case errors.Is(err, auth.ErrMissingPublicKey):
		return http.StatusBadRequest, "MISSING_PUBLIC_KEY"
	case errors.Is(err, auth.ErrMalformedPublicKey):
		return http.StatusBadRequest, "MALFORMED_PUBLIC_KEY"
	case errors.Is(err, auth.ErrMalformedSignature):
		return http.StatusBadRequest, "MALFORMED_SIGNATURE"
	case errors.Is(err, auth.ErrAgentNotFound):
		return http.StatusUnauthorized, "AGENT_NOT_FOUND"
	case errors.Is(err, auth.ErrInvalidSignature):
		return http.StatusUnauthorized, "INVALID_SIGNATURE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// GetAgentID extracts the authenticated agent id from request context.
func GetAgentID(ctx context.Context) string {
	id, _ := ctx.Value(AgentIDKey).(string)
	return id
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
