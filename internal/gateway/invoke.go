package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/adapters"
	"github.com/compresr/model-adapters/internal/chat"
	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/monitoring"
	"github.com/compresr/model-adapters/internal/prompts"
	"github.com/compresr/model-adapters/internal/store"
)

// errBadRequest marks client mistakes that are not covered by a package
// sentinel.
var errBadRequest = errors.New("bad request")

// prepared is a request resolved to an adapter and a rendered input.
type prepared struct {
	key     string // provider.model as requested
	modelID string // model name sent to the vendor
	adapter adapters.Adapter
	name    string
	kind    adapters.PromptKind
	tmpl    prompts.Template
	input   llm.Input
	kwargs  llm.ModelKwargs
}

// prepare resolves the adapter for req.Model and renders the selected template.
func (g *Gateway) prepare(ctx context.Context, req ChatRequest) (*prepared, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("%w: model is required", errBadRequest)
	}
	kind, err := adapters.ParsePromptKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	kwargs, err := llm.ParseModelKwargs(req.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	adapter, err := g.registry.Build(req.Model, adapters.Options{Clients: g.clients})
	if err != nil {
		g.metrics.RecordResolveMiss()
		g.alerts.FlagUnknownModel(monitoring.RequestIDFromContext(ctx), req.Model)
		return nil, err
	}
	_, modelName, _ := adapters.SplitModelKey(req.Model)

	vars, err := requestValues(req)
	if err != nil {
		return nil, err
	}
	tmpl := adapters.SelectPrompt(adapter, kind)
	input, err := adapters.BuildInput(tmpl, vars)
	if err != nil {
		return nil, err
	}

	return &prepared{
		key:     req.Model,
		modelID: modelName,
		adapter: adapter,
		name:    adapters.NameOf(adapter),
		kind:    kind,
		tmpl:    tmpl,
		input:   input,
		kwargs:  kwargs,
	}, nil
}

// requestValues merges the request's variables, input shorthand and history.
// Input fills both {input} and {question} unless they are given explicitly.
func requestValues(req ChatRequest) (prompts.Values, error) {
	vars := make(prompts.Values, len(req.Variables)+3)
	for k, v := range req.Variables {
		vars[k] = v
	}
	if req.Input != "" {
		for _, name := range []string{prompts.VarInput, prompts.VarQuestion} {
			if _, ok := vars[name]; !ok {
				vars[name] = req.Input
			}
		}
	}

	if _, ok := vars[prompts.VarChatHistory]; ok && len(req.ChatHistory) == 0 {
		return vars, nil
	}
	history := make([]chat.Message, 0, len(req.ChatHistory))
	for i, m := range req.ChatHistory {
		role, err := chat.ParseRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: chat_history[%d]: %v", errBadRequest, i, err)
		}
		history = append(history, chat.Message{Role: role, Content: m.Content})
	}
	vars[prompts.VarChatHistory] = history
	return vars, nil
}

// invoke builds the adapter's model and runs it. A non-nil fn requests
// streaming; models that cannot stream return the whole text at once.
func (g *Gateway) invoke(ctx context.Context, p *prepared, fn llm.ChunkFunc) (*llm.Output, bool, error) {
	kwargs := p.kwargs
	if fn != nil {
		kwargs.Streaming = true
	}

	model, err := p.adapter.LLM(kwargs)
	if err != nil {
		return nil, false, err
	}
	streamed := model.Streaming() && fn != nil

	start := time.Now()
	out, err := llm.Run(ctx, model, p.input, fn)
	g.record(ctx, p, out, streamed, time.Since(start), err)
	if err != nil {
		return nil, streamed, err
	}
	return out, streamed, nil
}

// record reports one invocation to metrics, logs, alerts and the ledger.
// Usage the vendor did not report is estimated.
func (g *Gateway) record(ctx context.Context, p *prepared, out *llm.Output, streamed bool, latency time.Duration, err error) {
	requestID := monitoring.RequestIDFromContext(ctx)
	event := monitoring.InvocationEvent{
		RequestID: requestID,
		ModelID:   p.modelID,
		Adapter:   p.name,
		Streaming: streamed,
		Latency:   latency,
	}
	if out != nil {
		event.InputTokens = out.Usage.InputTokens
		event.OutputTokens = out.Usage.OutputTokens
		event.StopReason = out.StopReason
		if event.OutputTokens == 0 {
			event.OutputTokens = g.estimator.Count(out.Text)
		}
	}
	if event.InputTokens == 0 {
		event.InputTokens = g.estimator.Count(p.input.Text())
	}
	if err != nil {
		event.Error = err.Error()
		g.alerts.FlagInvocationFailure(requestID, p.modelID, p.name, err)
	}

	g.metrics.RecordInvocation(event)
	g.requestLogger.LogInvocation(event)
	g.alerts.FlagHighLatency(requestID, latency, p.modelID)

	if serr := g.store.Record(context.WithoutCancel(ctx), store.UsageRecord{
		RequestID:    event.RequestID,
		ModelID:      event.ModelID,
		Adapter:      event.Adapter,
		Streaming:    event.Streaming,
		Latency:      event.Latency,
		InputTokens:  event.InputTokens,
		OutputTokens: event.OutputTokens,
		Error:        event.Error,
	}); serr != nil {
		log.Warn().Err(serr).Str("request_id", requestID).Msg("usage record dropped")
	}
}

// statusOf maps an error onto an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, adapters.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, prompts.ErrMissingVariable),
		errors.Is(err, chat.ErrInvalidMessageType),
		errors.Is(err, llm.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, adapters.ErrNoClients):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
