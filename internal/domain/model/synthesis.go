package model

// SynthesisRequest describes text to be spoken by the synthesis service.
type SynthesisRequest struct {
	Text         string
	Voice        string
	Language     string
	OutputFormat string
}

// SynthesisResult holds the rendered audio returned by the synthesis service.
type SynthesisResult struct {
	Audio       []byte
	ContentType string
	RequestID   string
}
