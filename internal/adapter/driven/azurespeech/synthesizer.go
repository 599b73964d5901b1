package azurespeech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/speechgate/internal/domain/model"
	"github.com/ericfisherdev/speechgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Synthesizer = (*Synthesizer)(nil)

// Synthesis defaults applied when a request leaves them empty.
const (
	DefaultVoice        = "en-US-JennyNeural"
	DefaultLanguage     = "en-US"
	DefaultOutputFormat = "riff-24khz-16bit-mono-pcm"
)

// maxAudioBytes bounds the synthesized audio read into memory.
const maxAudioBytes = 64 << 20

// Synthesizer renders text to audio through the regional text-to-speech REST
// endpoint, authenticating with a bearer token from the credential cache.
type Synthesizer struct {
	httpClient *http.Client
	baseURL    string // Empty in production; the URL is derived from the credential's region.
	userAgent  string
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  "speechgate",
	}
}

// NewSynthesizerWithHTTPClient creates a Synthesizer with a custom http.Client
// and a fixed base URL. Intended for tests against an httptest server.
func NewSynthesizerWithHTTPClient(httpClient *http.Client, baseURL string) *Synthesizer {
	return &Synthesizer{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  "speechgate",
	}
}

// Synthesize sends req as SSML and returns the audio. It blocks until the
// service answers; non-2xx responses are returned as *driven.RemoteError.
func (s *Synthesizer) Synthesize(ctx context.Context, cred model.Credential, req model.SynthesisRequest) (model.SynthesisResult, error) {
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	lang := req.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	format := req.OutputFormat
	if format == "" {
		format = DefaultOutputFormat
	}

	ssml, err := buildSSML(req.Text, voice, lang)
	if err != nil {
		return model.SynthesisResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(cred.Region), bytes.NewReader(ssml))
	if err != nil {
		return model.SynthesisResult{}, fmt.Errorf("build synthesis request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+cred.Token)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", format)
	httpReq.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return model.SynthesisResult{}, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return model.SynthesisResult{}, fmt.Errorf("read synthesis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.SynthesisResult{}, &driven.RemoteError{
			Service:    "azure speech tts",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return model.SynthesisResult{
		Audio:       body,
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   resp.Header.Get("X-RequestId"),
	}, nil
}

func (s *Synthesizer) endpoint(region string) string {
	if s.baseURL != "" {
		return s.baseURL + "/cognitiveservices/v1"
	}
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
}

// buildSSML wraps text in a single-voice SSML document, escaping it as XML
// character data.
func buildSSML(text, voice, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesis text is empty")
	}

	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return nil, fmt.Errorf("escape synthesis text: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<speak version='1.0' xml:lang='%s'><voice name='%s'>`, xmlAttr(lang), xmlAttr(voice))
	buf.Write(escaped.Bytes())
	buf.WriteString(`</voice></speak>`)
	return buf.Bytes(), nil
}

// xmlAttr escapes a value for use inside a single-quoted XML attribute.
func xmlAttr(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}
