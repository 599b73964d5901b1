package application_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/speechgate/internal/application"
	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

type fakeSynthesizer struct {
	got    []model.Credential
	result model.SynthesisResult
	err    error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, cred model.Credential, _ model.SynthesisRequest) (model.SynthesisResult, error) {
	f.got = append(f.got, cred)
	return f.result, f.err
}

func TestSpeak_UsesResolvedCredential(t *testing.T) {
	store := newMapCacheStore()
	store.entries[application.DefaultCacheKey] = driven.CacheEntry{Value: "eastus:cached", ExpiresAt: testStart.Add(time.Minute)}
	issuer := &fakeIssuer{}
	synth := &fakeSynthesizer{result: model.SynthesisResult{Audio: []byte("RIFF"), ContentType: "audio/wav"}}

	svc := application.NewSpeechService(newCache(store, issuer, newManagedClock(testStart)), synth)
	result, err := svc.Speak(context.Background(), model.SynthesisRequest{Text: "hello"})

	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), result.Audio)
	require.Len(t, synth.got, 1)
	assert.Equal(t, "cached", synth.got[0].Token)
	assert.Equal(t, "eastus", synth.got[0].Region)
	assert.Zero(t, issuer.calls.Load())
}

func TestSpeak_CredentialFailureSkipsSynthesis(t *testing.T) {
	issuer := &fakeIssuer{err: &driven.RemoteError{Service: "azure sts", StatusCode: http.StatusUnauthorized, Body: "denied"}}
	synth := &fakeSynthesizer{}

	svc := application.NewSpeechService(newCache(newMapCacheStore(), issuer, newManagedClock(testStart)), synth)
	_, err := svc.Speak(context.Background(), model.SynthesisRequest{Text: "hello"})

	assert.ErrorIs(t, err, model.ErrIssuanceFailed)
	assert.Empty(t, synth.got)
}

func TestSpeak_RejectedCredentialIsInvalidated(t *testing.T) {
	store := newMapCacheStore()
	store.entries[application.DefaultCacheKey] = driven.CacheEntry{Value: "eastus:revoked", ExpiresAt: testStart.Add(time.Minute)}
	synth := &fakeSynthesizer{err: &driven.RemoteError{Service: "azure tts", StatusCode: http.StatusUnauthorized}}

	svc := application.NewSpeechService(newCache(store, &fakeIssuer{}, newManagedClock(testStart)), synth)
	_, err := svc.Speak(context.Background(), model.SynthesisRequest{Text: "hello"})

	require.Error(t, err)
	assert.True(t, driven.IsUnauthorized(err))
	assert.Empty(t, store.snapshot(), "rejected credential must be evicted")
	assert.Len(t, synth.got, 1, "no retry inside Speak")
}

func TestSpeak_OtherSynthesisErrorKeepsCache(t *testing.T) {
	store := newMapCacheStore()
	store.entries[application.DefaultCacheKey] = driven.CacheEntry{Value: "eastus:good", ExpiresAt: testStart.Add(time.Minute)}
	synth := &fakeSynthesizer{err: &driven.RemoteError{Service: "azure tts", StatusCode: http.StatusBadRequest, Body: "invalid SSML"}}

	svc := application.NewSpeechService(newCache(store, &fakeIssuer{}, newManagedClock(testStart)), synth)
	_, err := svc.Speak(context.Background(), model.SynthesisRequest{Text: "hello"})

	require.Error(t, err)
	assert.Contains(t, store.snapshot(), application.DefaultCacheKey)
}
