package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/compresr/model-adapters/internal/adapters"
)

// recentUsageLimit bounds the ledger rows returned by /v1/usage.
const recentUsageLimit = 20

// setupRoutes registers every endpoint.
func (g *Gateway) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /v1/adapters", g.handleAdapters)
	mux.HandleFunc("GET /v1/adapters/resolve", g.handleResolve)
	mux.HandleFunc("POST /v1/prompts/render", g.handleRender)
	mux.HandleFunc("POST /v1/chat", g.handleChat)
	mux.HandleFunc("GET /v1/chat/stream", g.handleChatStream)
	mux.HandleFunc("GET /v1/usage", g.handleUsage)
	return mux
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleAdapters(w http.ResponseWriter, _ *http.Request) {
	regs := g.registry.Registrations()
	out := make([]AdapterInfo, 0, len(regs))
	for _, r := range regs {
		out = append(out, AdapterInfo{Pattern: r.Pattern, Adapter: r.AdapterName()})
	}
	g.writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleResolve(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	if model == "" {
		g.writeError(w, r, "model query parameter is required", http.StatusBadRequest)
		return
	}

	matches := g.registry.ResolveAll(model)
	if len(matches) == 0 {
		g.metrics.RecordResolveMiss()
		g.writeError(w, r, fmt.Errorf("%w: %s", adapters.ErrNotFound, model).Error(), http.StatusNotFound)
		return
	}

	resp := ResolveResponse{
		Model:   model,
		Adapter: matches[0].AdapterName(),
		Pattern: matches[0].Pattern,
		Matches: make([]AdapterInfo, 0, len(matches)),
	}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, AdapterInfo{Pattern: m.Pattern, Adapter: m.AdapterName()})
	}
	g.writeJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeRequest(w, r)
	if !ok {
		return
	}
	p, err := g.prepare(r.Context(), req)
	if err != nil {
		g.writeError(w, r, err.Error(), statusOf(err))
		return
	}

	g.writeJSON(w, http.StatusOK, RenderResponse{
		Model:           p.key,
		Adapter:         p.name,
		Kind:            string(p.kind),
		TemplateKind:    string(p.tmpl.Kind()),
		InputVariables:  p.tmpl.InputVariables(),
		System:          p.input.System,
		Messages:        p.input.Messages,
		Prompt:          p.input.Prompt,
		EstimatedTokens: g.estimator.Count(p.input.Text()),
	})
}

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeRequest(w, r)
	if !ok {
		return
	}
	p, err := g.prepare(r.Context(), req)
	if err != nil {
		g.writeError(w, r, err.Error(), statusOf(err))
		return
	}

	out, _, err := g.invoke(r.Context(), p, nil)
	if err != nil {
		g.writeError(w, r, err.Error(), statusOf(err))
		return
	}

	g.writeJSON(w, http.StatusOK, ChatResponse{
		RequestID:  w.Header().Get(HeaderRequestID),
		Model:      p.key,
		Adapter:    p.name,
		Text:       out.Text,
		StopReason: out.StopReason,
		Usage:      out.Usage,
	})
}

func (g *Gateway) handleUsage(w http.ResponseWriter, r *http.Request) {
	summaries, err := g.store.Summaries(r.Context())
	if err != nil {
		g.writeError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}
	recent, err := g.store.Recent(r.Context(), recentUsageLimit)
	if err != nil {
		g.writeError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}
	g.writeJSON(w, http.StatusOK, UsageResponse{
		Metrics:   g.metrics.Stats(),
		Summaries: summaries,
		Recent:    recent,
	})
}

// decodeRequest reads a ChatRequest body, writing a 400 on failure.
func (g *Gateway) decodeRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		g.alerts.FlagInvalidRequest(w.Header().Get(HeaderRequestID), err.Error())
		g.writeError(w, r, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return ChatRequest{}, false
	}
	return req, true
}
