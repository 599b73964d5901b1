package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
	"github.com/ericfisherdev/speechgate/internal/metrics"
)

// Defaults for the credential cache.
const (
	DefaultTokenTTL = 540 * time.Second
	DefaultCacheKey = "speech-token"

	// RefreshTimeout bounds a shared token refresh.
	RefreshTimeout = 30 * time.Second
)

// CredentialCache resolves a speech service credential, preferring an
// unexpired cached value and falling back to the token issuer.
//
// The cache store is the only shared state. Concurrent Resolve calls within one
// process share a single issuance call; across processes two callers may both
// refresh, which costs one redundant issuance but never corrupts the entry
// because Set replaces it whole.
type CredentialCache struct {
	store   driven.CacheStore
	issuer  driven.TokenIssuer
	region  string
	key     string
	ttl     time.Duration
	clock   Clock
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewCredentialCache creates a CredentialCache. region is reported in errors
// and used for cached values when the issuer does not echo one. Empty key and
// non-positive ttl fall back to DefaultCacheKey and DefaultTokenTTL.
func NewCredentialCache(
	store driven.CacheStore,
	issuer driven.TokenIssuer,
	region string,
	key string,
	ttl time.Duration,
	clock Clock,
	m *metrics.Metrics,
) *CredentialCache {
	if key == "" {
		key = DefaultCacheKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &CredentialCache{
		store:   store,
		issuer:  issuer,
		region:  region,
		key:     key,
		ttl:     ttl,
		clock:   clock,
		metrics: m,
	}
}

// Resolve returns a credential that is valid now. A cache hit makes no remote
// call. On a miss or expired entry the issuer is called once and the result is
// written back with expiry now+TTL. Issuance failures return *model.AuthError
// and leave the cache untouched.
func (c *CredentialCache) Resolve(ctx context.Context) (model.Credential, error) {
	if cred, ok := c.lookup(ctx); ok {
		return cred, nil
	}

	// The refresh is shared by every caller waiting on c.key, so it must not
	// inherit any single caller's cancellation.
	ch := c.group.DoChan(c.key, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()
		return c.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return model.Credential{}, fmt.Errorf("resolve credential: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return model.Credential{}, res.Err
		}
		if res.Shared {
			slog.Debug("credential refresh shared with concurrent caller", "key", c.key)
		}
		return res.Val.(model.Credential), nil
	}
}

// Invalidate removes the cached credential so the next Resolve issues a new
// token. Used when the service rejects a token before its cached expiry.
func (c *CredentialCache) Invalidate(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return err
	}
	slog.Info("credential cache invalidated", "key", c.key)
	return nil
}

// lookup reads the cache. Read errors and malformed values count as misses.
func (c *CredentialCache) lookup(ctx context.Context) (model.Credential, bool) {
	entry, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		slog.Warn("credential cache read failed, treating as miss", "key", c.key, "error", err)
		c.metrics.CacheLookup("error")
		return model.Credential{}, false
	}
	if !found {
		c.metrics.CacheLookup("miss")
		return model.Credential{}, false
	}

	now := c.clock.Now()
	if !now.Before(entry.ExpiresAt) {
		slog.Debug("cached credential expired", "key", c.key, "expired_at", entry.ExpiresAt)
		c.metrics.CacheLookup("expired")
		return model.Credential{}, false
	}

	region, token, err := model.ParseCredentialValue(entry.Value)
	if err != nil {
		slog.Warn("cached credential malformed, treating as miss", "key", c.key, "error", err)
		c.metrics.CacheLookup("error")
		return model.Credential{}, false
	}

	c.metrics.CacheLookup("hit")
	slog.Debug("credential served from cache", "key", c.key, "region", region, "expires_at", entry.ExpiresAt)

	return model.Credential{
		Token:     token,
		Region:    region,
		IssuedAt:  entry.ExpiresAt.Add(-c.ttl),
		ExpiresAt: entry.ExpiresAt,
	}, true
}

// refresh issues a new token and writes it to the cache.
func (c *CredentialCache) refresh(ctx context.Context) (model.Credential, error) {
	issued, err := c.issuer.IssueToken(ctx)
	if err != nil {
		c.metrics.TokenIssued("failure")
		authErr := c.authError(err)
		slog.Error("token issuance failed",
			"region", authErr.Region,
			"status", authErr.StatusCode,
			"payload", authErr.Payload,
			"error", err,
		)
		return model.Credential{}, authErr
	}
	if issued.Token == "" {
		c.metrics.TokenIssued("failure")
		return model.Credential{}, &model.AuthError{
			Region: c.region,
			Err:    errors.New("issuer returned an empty token"),
		}
	}
	c.metrics.TokenIssued("success")

	region := issued.Region
	if region == "" {
		region = c.region
	}

	ttl := c.ttl
	if issued.TTLHint > 0 && issued.TTLHint < ttl {
		ttl = issued.TTLHint
	}

	now := c.clock.Now()
	cred := model.Credential{
		Token:     issued.Token,
		Region:    region,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	value := model.FormatCredentialValue(cred.Region, cred.Token)
	if err := c.store.Set(ctx, c.key, value, cred.ExpiresAt); err != nil {
		c.metrics.CacheWriteFailed()
		slog.Warn("credential cache write failed, returning uncached credential", "key", c.key, "error", err)
	} else {
		slog.Info("credential refreshed", "key", c.key, "region", cred.Region, "expires_at", cred.ExpiresAt)
	}

	return cred, nil
}

// authError wraps an issuer failure, copying the remote payload when the
// adapter reported one.
func (c *CredentialCache) authError(err error) *model.AuthError {
	authErr := &model.AuthError{Region: c.region, Err: err}

	var remote *driven.RemoteError
	if errors.As(err, &remote) {
		authErr.StatusCode = remote.StatusCode
		authErr.Payload = remote.Body
	}
	return authErr
}
