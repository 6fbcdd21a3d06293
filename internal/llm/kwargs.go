package llm

import (
	"encoding/json"
	"fmt"
)

// ModelKwargs are the generic generation settings a caller may supply.
// Nil pointers mean "not set" and are never forwarded to the vendor.
type ModelKwargs struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
	Streaming   bool     `json:"streaming,omitempty"`
}

// ParseModelKwargs reads kwargs from an untyped bag such as a decoded JSON
// object. Unrecognized keys are ignored; a recognized key with the wrong type
// is an error.
func ParseModelKwargs(raw map[string]any) (ModelKwargs, error) {
	var kw ModelKwargs
	if v, ok := raw["temperature"]; ok && v != nil {
		f, err := toFloat(v)
		if err != nil {
			return kw, fmt.Errorf("temperature: %w", err)
		}
		kw.Temperature = &f
	}
	if v, ok := raw["topP"]; ok && v != nil {
		f, err := toFloat(v)
		if err != nil {
			return kw, fmt.Errorf("topP: %w", err)
		}
		kw.TopP = &f
	}
	if v, ok := raw["maxTokens"]; ok && v != nil {
		f, err := toFloat(v)
		if err != nil {
			return kw, fmt.Errorf("maxTokens: %w", err)
		}
		if f != float64(int(f)) {
			return kw, fmt.Errorf("maxTokens: %v is not an integer", v)
		}
		n := int(f)
		kw.MaxTokens = &n
	}
	if v, ok := raw["streaming"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return kw, fmt.Errorf("streaming: expected bool, got %T", v)
		}
		kw.Streaming = b
	}
	return kw, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// =============================================================================
// PARAMETER MAPPING
// =============================================================================

// Params are vendor-keyed call parameters.
type Params map[string]any

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParamMapping names the vendor parameter each generic kwarg maps to.
// An empty name means the kwarg is not forwarded.
type ParamMapping struct {
	Temperature string
	TopP        string
	MaxTokens   string
}

// Vendor parameter tables.
var (
	ConverseParams      = ParamMapping{Temperature: "temperature", TopP: "top_p", MaxTokens: "max_tokens"}
	AnthropicParams     = ParamMapping{Temperature: "temperature", TopP: "top_p", MaxTokens: "max_tokens"}
	CohereCommandParams = ParamMapping{Temperature: "temperature", MaxTokens: "max_tokens"}
	SageMakerParams     = ParamMapping{Temperature: "temperature", TopP: "top_p", MaxTokens: "max_new_tokens"}
)

// Apply returns the vendor parameters for kwargs. Only kwargs that are set
// and have a mapped name appear in the result.
func (m ParamMapping) Apply(kw ModelKwargs) Params {
	p := Params{}
	if kw.Temperature != nil && m.Temperature != "" {
		p[m.Temperature] = *kw.Temperature
	}
	if kw.TopP != nil && m.TopP != "" {
		p[m.TopP] = *kw.TopP
	}
	if kw.MaxTokens != nil && m.MaxTokens != "" {
		p[m.MaxTokens] = *kw.MaxTokens
	}
	return p
}

// float reads a numeric param.
func (p Params) float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false
	}
	return f, true
}
