// Package httphandler serves speech credentials and synthesis over HTTP for
// browser clients that must not see the subscription key.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/speechgate/internal/application"
	"github.com/ericfisherdev/speechgate/internal/domain/model"
)

// TokenCookieName is the cookie set alongside token responses. Its value is
// the "<region>:<token>" composite and it expires with the credential.
const TokenCookieName = "speech-token"

// maxSynthesizeBody bounds the JSON body accepted by Synthesize.
const maxSynthesizeBody = 64 << 10

// Handler is the HTTP driving adapter for the speech credential API.
type Handler struct {
	credentials *application.CredentialCache
	speech      *application.SpeechService
	now         func() time.Time
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	credentials *application.CredentialCache,
	speech *application.SpeechService,
	clock application.Clock,
	logger *slog.Logger,
) *Handler {
	if clock == nil {
		clock = application.SystemClock()
	}
	return &Handler{
		credentials: credentials,
		speech:      speech,
		now:         clock.Now,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/speech/token", h.GetToken)
	mux.HandleFunc("DELETE /api/v1/speech/token", h.InvalidateToken)
	mux.HandleFunc("POST /api/v1/speech/synthesize", h.Synthesize)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetToken returns a valid credential, issuing one only when the cache has
// none. The composite value is also set as a cookie that expires with it.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Resolve(r.Context())
	if err != nil {
		h.writeCredentialError(w, err)
		return
	}

	maxAge := int(cred.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     TokenCookieName,
			Value:    model.FormatCredentialValue(cred.Region, cred.Token),
			Path:     "/",
			MaxAge:   maxAge,
			SameSite: http.SameSiteStrictMode,
		})
	}
	w.Header().Set("Cache-Control", "no-store")

	writeJSON(w, http.StatusOK, toTokenResponse(cred))
}

// InvalidateToken drops the cached credential so the next GetToken issues a
// new one.
func (h *Handler) InvalidateToken(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.Invalidate(r.Context()); err != nil {
		h.logger.Error("failed to invalidate credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Synthesize renders the requested text and streams back the audio.
func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req SynthesizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSynthesizeBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.speech.Speak(r.Context(), model.SynthesisRequest{
		Text:         req.Text,
		Voice:        req.Voice,
		Language:     req.Language,
		OutputFormat: req.OutputFormat,
	})
	if err != nil {
		var authErr *model.AuthError
		if errors.As(err, &authErr) {
			h.writeCredentialError(w, err)
			return
		}
		h.logger.Error("synthesis failed", "error", err)
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if result.RequestID != "" {
		w.Header().Set("X-Request-Id", result.RequestID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Audio)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   h.now().UTC().Format(time.RFC3339),
	})
}

// writeCredentialError reports issuance failures as 502 with the remote
// payload so a browser client can show why the token was refused.
func (h *Handler) writeCredentialError(w http.ResponseWriter, err error) {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		h.logger.Warn("credential issuance failed", "region", authErr.Region, "status", authErr.StatusCode)
		writeJSON(w, http.StatusBadGateway, TokenErrorResponse{
			Error:          "token issuance failed",
			UpstreamStatus: authErr.StatusCode,
			Payload:        authErr.Payload,
		})
		return
	}

	h.logger.Error("failed to resolve credential", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
