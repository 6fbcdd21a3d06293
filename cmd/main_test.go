package main

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/model-adapters/internal/adapters"
	"github.com/compresr/model-adapters/internal/clients"
	"github.com/compresr/model-adapters/internal/config"
	"github.com/compresr/model-adapters/internal/llm"
)

func TestRunModels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runModels(&buf, adapters.NewDefaultRegistry()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, adapters.NewDefaultRegistry().Len()+1)
	assert.Contains(t, lines[0], "PATTERN")
	assert.Contains(t, lines[1], "^bedrock.ai21.jamba*")
	assert.Contains(t, lines[1], "bedrock-chat")
	assert.Contains(t, buf.String(), "sagemaker-llama3-instruct")
}

func TestRunResolve(t *testing.T) {
	reg := adapters.NewDefaultRegistry()

	var buf bytes.Buffer
	require.NoError(t, runResolve(&buf, reg, []string{"bedrock.cohere.command-text-v14"}))
	out := buf.String()
	assert.Contains(t, out, "-> bedrock-chat-no-system-prompt")
	assert.Contains(t, out, "shadowed: bedrock-cohere-command")

	err := runResolve(io.Discard, reg, []string{"openai.gpt-4o"})
	assert.ErrorIs(t, err, adapters.ErrNotFound)

	assert.Error(t, runResolve(io.Discard, reg, nil))
}

func TestRunPrompt(t *testing.T) {
	reg := adapters.NewDefaultRegistry()

	var buf bytes.Buffer
	require.NoError(t, runPrompt(&buf, reg, []string{"sagemaker.meta-llama2-13b-chat", "-kind", "qa", "-input", "Quoi ?", "-context", "DOCS"}))
	out := buf.String()
	assert.Contains(t, out, "adapter: sagemaker-llama2-chat")
	assert.Contains(t, out, "Context: DOCS")
	assert.Contains(t, out, "Quoi ? [/INST]")

	buf.Reset()
	require.NoError(t, runPrompt(&buf, reg, []string{"-input", "Salut", "bedrock.meta.llama3-8b-instruct-v1:0"}))
	assert.Contains(t, buf.String(), "--- system ---")
	assert.Contains(t, buf.String(), "--- human ---\nSalut")

	assert.Error(t, runPrompt(io.Discard, reg, []string{"bedrock.meta.llama3", "-kind", "summary"}))
	assert.Error(t, runPrompt(io.Discard, reg, nil))
}

func TestRender_AdapterGetsModelName(t *testing.T) {
	factory := clients.NewFactory(clients.Options{
		Region:             "eu-west-3",
		AccessKeyID:        "AKIDEXAMPLE",
		SecretAccessKey:    "secret",
		SageMakerEndpoints: map[string]string{"meta-llama3-8b-instruct": "llama3-prod"},
	})
	opts := adapters.Options{Clients: factory}
	reg := adapters.NewDefaultRegistry()

	tests := []struct {
		key     string
		adapter string
		modelID string
	}{
		{"bedrock.anthropic.claude-3-haiku", "bedrock-chat", "anthropic.claude-3-haiku"},
		{"bedrock.cohere.command-r-v1:0", "bedrock-chat", "cohere.command-r-v1:0"},
		{"sagemaker.meta-llama3-8b-instruct", "sagemaker-llama3-instruct", "llama3-prod"},
		{"sagemaker.mistralai-Mistral-7B", "sagemaker-mistral-instruct", "mistralai-Mistral-7B"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			pf := addPromptFlags(flag.NewFlagSet("test", flag.ContinueOnError))
			*pf.input = "Salut"

			adapter, in, err := render(reg, tt.key, pf, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.adapter, adapters.NameOf(adapter))
			assert.False(t, in.IsEmpty())

			model, err := adapter.LLM(llm.ModelKwargs{})
			require.NoError(t, err)
			assert.Equal(t, tt.modelID, model.ModelID())
		})
	}

	name, err := factory.EndpointName("mistralai-Mistral-7B")
	require.NoError(t, err)
	assert.Equal(t, "mistralai-Mistral-7B", name)

	_, _, err = render(reg, "claude-3-haiku", addPromptFlags(flag.NewFlagSet("test", flag.ContinueOnError)), opts)
	assert.ErrorIs(t, err, adapters.ErrNotFound)
}

func TestParseModelArgs(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	input := fs.String("input", "", "")

	id, err := parseModelArgs(fs, []string{"model-a", "-input", "hi"})
	require.NoError(t, err)
	assert.Equal(t, "model-a", id)
	assert.Equal(t, "hi", *input)

	fs2 := flag.NewFlagSet("x", flag.ContinueOnError)
	fs2.SetOutput(io.Discard)
	fs2.String("input", "", "")
	id, err = parseModelArgs(fs2, []string{"-input", "hi", "model-b"})
	require.NoError(t, err)
	assert.Equal(t, "model-b", id)
}

func TestEmbeddedConfigLoads(t *testing.T) {
	for _, key := range []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "ADAPTERS_STORE", "ADAPTERS_PORT"} {
		t.Setenv(key, "")
	}

	names, err := listEmbeddedConfigs()
	require.NoError(t, err)
	assert.Contains(t, names, defaultConfigName)

	data, err := getEmbeddedConfig(defaultConfigName)
	require.NoError(t, err)
	withExt, err := getEmbeddedConfig(defaultConfigName + ".yaml")
	require.NoError(t, err)
	assert.Equal(t, data, withExt)
	cfg, err := config.LoadFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 18090, cfg.Server.Port)
	assert.Equal(t, config.StoreMemory, cfg.Store.Type)
}

func TestResolveServeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: {}"), 0o600))

	data, source, err := resolveServeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, "server: {}", string(data))

	_, _, err = resolveServeConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReadInput_Piped(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("  Bonjour\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	defer r.Close()

	text, err := readInput(r, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", text)
}

func TestPrintHelp(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf)
	for _, cmd := range []string{"serve", "models", "resolve", "prompt", "invoke", "version"} {
		assert.Contains(t, buf.String(), cmd)
	}
}
