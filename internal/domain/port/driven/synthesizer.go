package driven

import (
	"context"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
)

// Synthesizer defines the driven port for a text-to-speech service that
// authenticates with a short-lived credential.
type Synthesizer interface {
	// Synthesize blocks until the service returns audio or an error.
	Synthesize(ctx context.Context, cred model.Credential, req model.SynthesisRequest) (model.SynthesisResult, error)
}
