// Package azurespeech implements the TokenIssuer and Synthesizer ports against
// the Azure Speech service REST endpoints.
package azurespeech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenIssuer = (*TokenIssuer)(nil)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// TokenIssuer exchanges a subscription key for a short-lived access token via
// the regional STS endpoint.
type TokenIssuer struct {
	httpClient      *http.Client
	subscriptionKey string
	region          string
	endpoint        string // https://{region}.api.cognitive.microsoft.com/sts/v1.0/issueToken in production.
}

// NewTokenIssuer creates a TokenIssuer for region.
func NewTokenIssuer(subscriptionKey, region string) *TokenIssuer {
	return &TokenIssuer{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		subscriptionKey: subscriptionKey,
		region:          region,
		endpoint:        fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", region),
	}
}

// NewTokenIssuerWithHTTPClient creates a TokenIssuer with a custom http.Client
// and base URL. Intended for tests against an httptest server.
func NewTokenIssuerWithHTTPClient(httpClient *http.Client, baseURL, subscriptionKey, region string) *TokenIssuer {
	return &TokenIssuer{
		httpClient:      httpClient,
		subscriptionKey: subscriptionKey,
		region:          region,
		endpoint:        strings.TrimSuffix(baseURL, "/") + "/sts/v1.0/issueToken",
	}
}

// IssueToken requests a new access token. The response body is the raw token.
// Non-2xx responses are returned as *driven.RemoteError carrying the body.
func (i *TokenIssuer) IssueToken(ctx context.Context) (driven.IssuedToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, http.NoBody)
	if err != nil {
		return driven.IssuedToken{}, fmt.Errorf("build issue token request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", i.subscriptionKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return driven.IssuedToken{}, fmt.Errorf("issue token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return driven.IssuedToken{}, fmt.Errorf("read issue token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return driven.IssuedToken{}, &driven.RemoteError{
			Service:    "azure speech sts",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return driven.IssuedToken{
		Token:  strings.TrimSpace(string(body)),
		Region: i.region,
	}, nil
}
