package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// sageMakerURLPattern is the runtime invocation URL for an endpoint.
const sageMakerURLPattern = "https://runtime.sagemaker.%s.amazonaws.com/endpoints/%s/invocations"

// SageMakerURL returns the invocation URL for endpoint in region.
func SageMakerURL(region, endpoint string) string {
	return fmt.Sprintf(sageMakerURLPattern, region, endpoint)
}

// SageMakerTarget is a resolved SageMaker endpoint plus the signed HTTP
// client used to call it.
type SageMakerTarget struct {
	EndpointName string
	Region       string
	URL          string
	Client       *http.Client
}

// =============================================================================
// CONTENT HANDLERS
// =============================================================================

// ContentHandler converts between a prompt and an endpoint's wire format.
type ContentHandler interface {
	ContentType() string
	Accepts() string
	TransformInput(prompt string, params Params) ([]byte, error)
	TransformOutput(body []byte) (string, error)
}

// TGIHandler speaks the Hugging Face text-generation-inference format:
// {"inputs": ..., "parameters": {...}} in, [{"generated_text": ...}] out.
type TGIHandler struct {
	Stop []string
}

// TGI parameter defaults, overridden by caller params.
const (
	defaultMaxNewTokens = 512
	defaultTopP         = 0.9
	defaultTemperature  = 0.6
)

// MistralInstructHandler stops on "###" and "</s>".
func MistralInstructHandler() *TGIHandler {
	return &TGIHandler{Stop: []string{"###", "</s>"}}
}

// Llama2ChatHandler stops at the end-of-sequence marker.
func Llama2ChatHandler() *TGIHandler {
	return &TGIHandler{Stop: []string{"</s>"}}
}

// Llama3InstructHandler stops at the end-of-turn marker.
func Llama3InstructHandler() *TGIHandler {
	return &TGIHandler{Stop: []string{"<|eot_id|>"}}
}

func (h *TGIHandler) ContentType() string { return jsonContentType }
func (h *TGIHandler) Accepts() string     { return jsonContentType }

// TransformInput builds the TGI request body.
func (h *TGIHandler) TransformInput(prompt string, params Params) ([]byte, error) {
	maxNew, ok := params.float("max_new_tokens")
	if !ok {
		maxNew = defaultMaxNewTokens
	}
	topP, ok := params.float("top_p")
	if !ok {
		topP = defaultTopP
	}
	temperature, ok := params.float("temperature")
	if !ok {
		temperature = defaultTemperature
	}

	stop := h.Stop
	if stop == nil {
		stop = []string{}
	}

	body := []byte(`{}`)
	fields := []struct {
		path  string
		value any
	}{
		{"inputs", prompt},
		{"parameters.do_sample", true},
		{"parameters.max_new_tokens", int(maxNew)},
		{"parameters.top_p", topP},
		{"parameters.temperature", temperature},
		{"parameters.return_full_text", false},
		{"parameters.stop", stop},
	}
	var err error
	for _, f := range fields {
		if body, err = sjson.SetBytes(body, f.path, f.value); err != nil {
			return nil, fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	return body, nil
}

// TransformOutput reads generated_text from the first result. A bare object
// is accepted as well.
func (h *TGIHandler) TransformOutput(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("invalid JSON response")
	}
	for _, path := range []string{"0.generated_text", "generated_text"} {
		if r := gjson.GetBytes(body, path); r.Exists() {
			return r.String(), nil
		}
	}
	return "", fmt.Errorf("response has no generated_text")
}

// =============================================================================
// ENDPOINT MODEL
// =============================================================================

// SageMakerEndpoint calls a text-generation SageMaker endpoint. It never
// streams; Stream emits the full completion as one chunk.
type SageMakerEndpoint struct {
	target  *SageMakerTarget
	handler ContentHandler
	params  Params
}

// NewSageMakerEndpoint creates an endpoint client.
func NewSageMakerEndpoint(target *SageMakerTarget, handler ContentHandler, params Params) *SageMakerEndpoint {
	if params == nil {
		params = Params{}
	}
	return &SageMakerEndpoint{target: target, handler: handler, params: params}
}

func (m *SageMakerEndpoint) ModelID() string                { return m.target.EndpointName }
func (m *SageMakerEndpoint) Params() Params                 { return m.params.Clone() }
func (m *SageMakerEndpoint) Streaming() bool                { return false }
func (m *SageMakerEndpoint) Target() *SageMakerTarget       { return m.target }
func (m *SageMakerEndpoint) ContentHandler() ContentHandler { return m.handler }

// Generate posts the transformed prompt to the endpoint.
func (m *SageMakerEndpoint) Generate(ctx context.Context, in Input) (*Output, error) {
	prompt, err := flatten(in)
	if err != nil {
		return nil, err
	}
	body, err := m.handler.TransformInput(prompt, m.params)
	if err != nil {
		return nil, fmt.Errorf("transform input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.target.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", m.handler.ContentType())
	req.Header.Set("Accept", m.handler.Accepts())

	client := m.target.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sagemaker invoke %s: %w", m.target.EndpointName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("sagemaker invoke %s: status %d: %s",
			m.target.EndpointName, resp.StatusCode, truncate(string(respBody), 512))
	}

	text, err := m.handler.TransformOutput(respBody)
	if err != nil {
		return nil, fmt.Errorf("transform output: %w", err)
	}
	return &Output{Text: text}, nil
}

// Stream runs Generate and emits its text as a single chunk.
func (m *SageMakerEndpoint) Stream(ctx context.Context, in Input, fn ChunkFunc) (*Output, error) {
	out, err := m.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	if fn != nil && out.Text != "" {
		if err := fn(out.Text); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Model = (*SageMakerEndpoint)(nil)
