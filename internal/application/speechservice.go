package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// SpeechService opens a synthesis session with a credential from the
// CredentialCache. It is the consumer side of credential resolution.
type SpeechService struct {
	credentials *CredentialCache
	synth       driven.Synthesizer
}

// NewSpeechService creates a SpeechService with the required dependencies.
func NewSpeechService(credentials *CredentialCache, synth driven.Synthesizer) *SpeechService {
	return &SpeechService{
		credentials: credentials,
		synth:       synth,
	}
}

// Speak resolves a credential and synthesizes req, blocking until audio or an
// error is returned. When the service rejects the credential the cached entry
// is invalidated so the next call fetches a fresh token; Speak itself does not
// retry.
func (s *SpeechService) Speak(ctx context.Context, req model.SynthesisRequest) (model.SynthesisResult, error) {
	cred, err := s.credentials.Resolve(ctx)
	if err != nil {
		return model.SynthesisResult{}, err
	}

	slog.Info("synthesizing speech", "region", cred.Region, "voice", req.Voice, "chars", len(req.Text))

	result, err := s.synth.Synthesize(ctx, cred, req)
	if err != nil {
		if driven.IsUnauthorized(err) {
			if invErr := s.credentials.Invalidate(ctx); invErr != nil {
				slog.Warn("failed to invalidate rejected credential", "error", invErr)
			}
		}
		return model.SynthesisResult{}, fmt.Errorf("synthesize speech: %w", err)
	}

	slog.Info("synthesis finished", "bytes", len(result.Audio), "request_id", result.RequestID)
	return result, nil
}
