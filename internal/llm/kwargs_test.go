package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamMapping_Apply(t *testing.T) {
	full := ModelKwargs{Temperature: Float64(0.2), TopP: Float64(0.9), MaxTokens: Int(100)}

	tests := []struct {
		name    string
		mapping ParamMapping
		kwargs  ModelKwargs
		want    Params
	}{
		{
			name:    "converse renames topP and maxTokens",
			mapping: ConverseParams,
			kwargs:  full,
			want:    Params{"temperature": 0.2, "top_p": 0.9, "max_tokens": 100},
		},
		{
			name:    "cohere drops topP",
			mapping: CohereCommandParams,
			kwargs:  full,
			want:    Params{"temperature": 0.2, "max_tokens": 100},
		},
		{
			name:    "sagemaker uses max_new_tokens",
			mapping: SageMakerParams,
			kwargs:  full,
			want:    Params{"temperature": 0.2, "top_p": 0.9, "max_new_tokens": 100},
		},
		{
			name:    "unset kwargs are omitted",
			mapping: AnthropicParams,
			kwargs:  ModelKwargs{Temperature: Float64(0.5)},
			want:    Params{"temperature": 0.5},
		},
		{
			name:    "empty kwargs",
			mapping: ConverseParams,
			kwargs:  ModelKwargs{},
			want:    Params{},
		},
		{
			name:    "zero values are still forwarded",
			mapping: ConverseParams,
			kwargs:  ModelKwargs{Temperature: Float64(0), MaxTokens: Int(0)},
			want:    Params{"temperature": 0.0, "max_tokens": 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mapping.Apply(tt.kwargs))
		})
	}
}

func TestParseModelKwargs(t *testing.T) {
	kw, err := ParseModelKwargs(map[string]any{
		"temperature": 0.3,
		"topP":        json.Number("0.8"),
		"maxTokens":   float64(256),
		"streaming":   true,
		"unknown":     "ignored",
	})
	require.NoError(t, err)
	require.NotNil(t, kw.Temperature)
	require.NotNil(t, kw.TopP)
	require.NotNil(t, kw.MaxTokens)
	assert.Equal(t, 0.3, *kw.Temperature)
	assert.Equal(t, 0.8, *kw.TopP)
	assert.Equal(t, 256, *kw.MaxTokens)
	assert.True(t, kw.Streaming)
}

func TestParseModelKwargs_Empty(t *testing.T) {
	kw, err := ParseModelKwargs(nil)
	require.NoError(t, err)
	assert.Equal(t, ModelKwargs{}, kw)
}

func TestParseModelKwargs_Errors(t *testing.T) {
	tests := map[string]map[string]any{
		"temperature string": {"temperature": "hot"},
		"maxTokens fraction": {"maxTokens": 1.5},
		"streaming number":   {"streaming": 1},
		"topP bool":          {"topP": true},
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseModelKwargs(raw)
			assert.Error(t, err)
		})
	}
}

func TestModelKwargs_JSON(t *testing.T) {
	var kw ModelKwargs
	require.NoError(t, json.Unmarshal([]byte(`{"temperature":0.1,"maxTokens":50,"other":1}`), &kw))
	assert.Equal(t, 0.1, *kw.Temperature)
	assert.Nil(t, kw.TopP)
	assert.Equal(t, 50, *kw.MaxTokens)
	assert.False(t, kw.Streaming)
}

func TestGuardrailsFrom(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	assert.Nil(t, guardrailsFrom(env(nil)))
	assert.Nil(t, guardrailsFrom(env(map[string]string{EnvGuardrailsVersion: "3"})))

	g := guardrailsFrom(env(map[string]string{EnvGuardrailsID: "gr-1"}))
	require.NotNil(t, g)
	assert.Equal(t, Guardrails{Identifier: "gr-1", Version: "DRAFT"}, *g)

	g = guardrailsFrom(env(map[string]string{EnvGuardrailsID: "gr-1", EnvGuardrailsVersion: "2"}))
	require.NotNil(t, g)
	assert.Equal(t, "2", g.Version)
}

func TestGuardrailsFromEnv(t *testing.T) {
	t.Setenv(EnvGuardrailsID, "")
	assert.Nil(t, GuardrailsFromEnv())

	t.Setenv(EnvGuardrailsID, "abc")
	t.Setenv(EnvGuardrailsVersion, "")
	g := GuardrailsFromEnv()
	require.NotNil(t, g)
	assert.Equal(t, "abc", g.Identifier)
	assert.Equal(t, "DRAFT", g.Version)
}

func TestGuardrails_NilConfigs(t *testing.T) {
	var g *Guardrails
	assert.Nil(t, g.converse())
	assert.Nil(t, g.converseStream())
}
