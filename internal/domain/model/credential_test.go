package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
)

func TestCredentialValue_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		region string
		token  string
	}{
		{name: "plain token", region: "eastus", token: "abc123"},
		{name: "token with one colon", region: "westeurope", token: "abc:123"},
		{name: "token with many colons", region: "eastus", token: "a:b:c::d"},
		{name: "token ending in colon", region: "eastus", token: "abc:"},
		{name: "jwt-like token", region: "eastus2", token: "eyJhbGciOi.eyJyZWdpb24iOiJlYXN0dXMifQ.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := model.FormatCredentialValue(tt.region, tt.token)

			region, token, err := model.ParseCredentialValue(value)

			require.NoError(t, err)
			assert.Equal(t, tt.region, region)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestParseCredentialValue_SplitsAtFirstColon(t *testing.T) {
	region, token, err := model.ParseCredentialValue("eastus:abc:123")

	require.NoError(t, err)
	assert.Equal(t, "eastus", region)
	assert.Equal(t, "abc:123", token)
}

func TestParseCredentialValue_Malformed(t *testing.T) {
	for _, value := range []string{"", "eastus", ":abc123", "eastus:"} {
		t.Run(value, func(t *testing.T) {
			_, _, err := model.ParseCredentialValue(value)
			assert.True(t, errors.Is(err, model.ErrMalformedCredentialValue))
		})
	}
}

func TestCredential_ValidAt(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cred := model.Credential{Token: "abc", Region: "eastus", ExpiresAt: expires}

	assert.True(t, cred.ValidAt(expires.Add(-time.Second)))
	assert.False(t, cred.ValidAt(expires), "credential is invalid at exactly ExpiresAt")
	assert.False(t, cred.ValidAt(expires.Add(time.Second)))
}

func TestJobError_IsMatchesKindSentinel(t *testing.T) {
	err := error(&model.JobError{Kind: model.JobErrorFailed, JobID: "job-1", Reason: "bad media"})

	assert.ErrorIs(t, err, model.ErrJobFailed)
	assert.NotErrorIs(t, err, model.ErrJobTransient)
	assert.Contains(t, err.Error(), "bad media")

	var jobErr *model.JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "job-1", jobErr.JobID)
}

func TestAuthError_IsIssuanceFailed(t *testing.T) {
	err := error(&model.AuthError{Region: "eastus", StatusCode: 401, Payload: "Access denied"})

	assert.ErrorIs(t, err, model.ErrIssuanceFailed)
	assert.Equal(t, `issue token for region "eastus": status 401: Access denied`, err.Error())
}
