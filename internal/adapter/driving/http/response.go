package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type errorResponse struct {
	Error string `json:"error"`
}

// TokenResponse is the JSON representation of a resolved speech credential.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
	Region    string `json:"region"`
	ExpiresAt string `json:"expires_at"`
}

// TokenErrorResponse is returned when the token issuer refused or failed.
// Payload carries the issuer's response body verbatim.
type TokenErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	Payload        string `json:"payload,omitempty"`
}

// SynthesizeRequest is the JSON body for the synthesize endpoint.
type SynthesizeRequest struct {
	Text         string `json:"text"`
	Voice        string `json:"voice,omitempty"`
	Language     string `json:"language,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toTokenResponse(cred model.Credential) TokenResponse {
	return TokenResponse{
		AuthToken: cred.Token,
		Region:    cred.Region,
		ExpiresAt: cred.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
