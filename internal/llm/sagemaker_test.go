package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/compresr/model-adapters/internal/chat"
)

func stopTokens(params gjson.Result) []string {
	var out []string
	for _, r := range params.Get("stop").Array() {
		out = append(out, r.String())
	}
	return out
}

func TestSageMakerURL(t *testing.T) {
	assert.Equal(t,
		"https://runtime.sagemaker.eu-west-1.amazonaws.com/endpoints/mistral-ep/invocations",
		SageMakerURL("eu-west-1", "mistral-ep"))
}

func TestTGIHandler_TransformInputDefaults(t *testing.T) {
	body, err := MistralInstructHandler().TransformInput("<s>[INST] hi [/INST]", Params{})
	require.NoError(t, err)

	assert.Equal(t, "<s>[INST] hi [/INST]", gjson.GetBytes(body, "inputs").String())
	p := gjson.GetBytes(body, "parameters")
	assert.True(t, p.Get("do_sample").Bool())
	assert.Equal(t, int64(512), p.Get("max_new_tokens").Int())
	assert.Equal(t, 0.9, p.Get("top_p").Float())
	assert.Equal(t, 0.6, p.Get("temperature").Float())
	assert.False(t, p.Get("return_full_text").Bool())
	assert.True(t, p.Get("return_full_text").Exists())
	assert.Equal(t, []string{"###", "</s>"}, stopTokens(p))
}

func TestTGIHandler_TransformInputOverrides(t *testing.T) {
	body, err := Llama3InstructHandler().TransformInput("x", Params{
		"max_new_tokens": 64, "top_p": 0.5, "temperature": 0.1,
	})
	require.NoError(t, err)
	p := gjson.GetBytes(body, "parameters")
	assert.Equal(t, int64(64), p.Get("max_new_tokens").Int())
	assert.Equal(t, 0.5, p.Get("top_p").Float())
	assert.Equal(t, 0.1, p.Get("temperature").Float())
	assert.Equal(t, []string{"<|eot_id|>"}, stopTokens(p))
}

func TestTGIHandler_TransformOutput(t *testing.T) {
	h := Llama2ChatHandler()

	text, err := h.TransformOutput([]byte(`[{"generated_text":"Bonjour"}]`))
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", text)

	text, err = h.TransformOutput([]byte(`{"generated_text":"Salut"}`))
	require.NoError(t, err)
	assert.Equal(t, "Salut", text)

	_, err = h.TransformOutput([]byte(`[{}]`))
	assert.Error(t, err)
}

func TestSageMakerEndpoint_Generate(t *testing.T) {
	var gotBody []byte
	var gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`[{"generated_text":" réponse"}]`))
	}))
	defer srv.Close()

	target := &SageMakerTarget{
		EndpointName: "ep",
		Region:       "us-east-1",
		URL:          srv.URL + "/endpoints/ep/invocations",
		Client:       srv.Client(),
	}
	m := NewSageMakerEndpoint(target, MistralInstructHandler(), Params{"temperature": 0.2})
	assert.Equal(t, "ep", m.ModelID())
	assert.False(t, m.Streaming())

	out, err := m.Generate(context.Background(), Input{Prompt: "prompt"})
	require.NoError(t, err)
	assert.Equal(t, " réponse", out.Text)
	assert.Equal(t, "/endpoints/ep/invocations", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "prompt", gjson.GetBytes(gotBody, "inputs").String())
	assert.Equal(t, 0.2, gjson.GetBytes(gotBody, "parameters.temperature").Float())
}

func TestSageMakerEndpoint_StreamEmitsOneChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"generated_text":"all at once"}]`))
	}))
	defer srv.Close()

	m := NewSageMakerEndpoint(&SageMakerTarget{EndpointName: "ep", URL: srv.URL}, MistralInstructHandler(), nil)

	var chunks []string
	out, err := m.Stream(context.Background(), Input{Messages: []chat.Message{chat.Human("hi")}}, func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"all at once"}, chunks)
	assert.Equal(t, "all at once", out.Text)
}

func TestSageMakerEndpoint_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewSageMakerEndpoint(&SageMakerTarget{EndpointName: "ep", URL: srv.URL}, MistralInstructHandler(), nil)
	_, err := m.Generate(context.Background(), Input{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestSageMakerEndpoint_InvalidHistory(t *testing.T) {
	m := NewSageMakerEndpoint(&SageMakerTarget{EndpointName: "ep", URL: "http://unused"}, MistralInstructHandler(), nil)
	_, err := m.Generate(context.Background(), Input{Messages: []chat.Message{{Role: chat.RoleTool, Content: "x"}}})
	assert.ErrorIs(t, err, chat.ErrInvalidMessageType)
}
