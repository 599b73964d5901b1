package driven

import (
	"context"
	"time"
)

// IssuedToken is the raw result of a token issuance call. TTLHint is zero when
// the issuer does not report a lifetime.
type IssuedToken struct {
	Token   string
	Region  string
	TTLHint time.Duration
}

// TokenIssuer defines the driven port for exchanging a long-lived subscription
// key for a short-lived authorization token. The subscription key and region
// are supplied to the adapter at construction time.
type TokenIssuer interface {
	IssueToken(ctx context.Context) (IssuedToken, error)
}
