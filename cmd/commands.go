package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/compresr/model-adapters/internal/adapters"
	"github.com/compresr/model-adapters/internal/chat"
	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/prompts"
	"github.com/compresr/model-adapters/internal/tokens"
)

// runModels prints the registration table in lookup order.
func runModels(w io.Writer, reg *adapters.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPATTERN\tADAPTER")
	for i, r := range reg.Registrations() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Pattern, r.AdapterName())
	}
	return tw.Flush()
}

// runResolve prints the adapter a model ID resolves to and every shadowed match.
func runResolve(w io.Writer, reg *adapters.Registry, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: resolve MODEL_ID")
	}
	modelID := args[0]

	matches := reg.ResolveAll(modelID)
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", adapters.ErrNotFound, modelID)
	}

	fmt.Fprintf(w, "%s -> %s (%s)\n", modelID, matches[0].AdapterName(), matches[0].Pattern)
	for _, m := range matches[1:] {
		fmt.Fprintf(w, "  shadowed: %s (%s)\n", m.AdapterName(), m.Pattern)
	}
	return nil
}

// promptFlags are shared by prompt and invoke.
type promptFlags struct {
	kind    *string
	input   *string
	context *string
}

func addPromptFlags(fs *flag.FlagSet) promptFlags {
	return promptFlags{
		kind:    fs.String("kind", "chat", "template: chat, qa or condense"),
		input:   fs.String("input", "", "user input (read from stdin when empty)"),
		context: fs.String("context", "", "retrieved documents for the qa template"),
	}
}

// parseModelArgs accepts MODEL_ID before or after the flags.
func parseModelArgs(fs *flag.FlagSet, args []string) (string, error) {
	var modelID string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		modelID, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if modelID == "" && fs.NArg() > 0 {
		modelID = fs.Arg(0)
	}
	if modelID == "" {
		return "", fmt.Errorf("usage: %s MODEL_ID [flags]", fs.Name())
	}
	return modelID, nil
}

// render builds the adapter for a provider.model key and fills the
// selected template.
func render(reg *adapters.Registry, modelID string, pf promptFlags, opts adapters.Options) (adapters.Adapter, llm.Input, error) {
	kind, err := adapters.ParsePromptKind(*pf.kind)
	if err != nil {
		return nil, llm.Input{}, err
	}
	adapter, err := reg.Build(modelID, opts)
	if err != nil {
		return nil, llm.Input{}, err
	}

	vars := prompts.Values{
		prompts.VarInput:       *pf.input,
		prompts.VarQuestion:    *pf.input,
		prompts.VarContext:     *pf.context,
		prompts.VarChatHistory: []chat.Message{},
	}
	in, err := adapters.BuildInput(adapters.SelectPrompt(adapter, kind), vars)
	if err != nil {
		return nil, llm.Input{}, err
	}
	return adapter, in, nil
}

// runPrompt renders a template for a model without calling it.
func runPrompt(w io.Writer, reg *adapters.Registry, args []string) error {
	fs := flag.NewFlagSet("prompt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pf := addPromptFlags(fs)
	modelID, err := parseModelArgs(fs, args)
	if err != nil {
		return err
	}

	adapter, in, err := render(reg, modelID, pf, adapters.Options{})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "adapter: %s\n", adapters.NameOf(adapter))
	if in.System != "" {
		fmt.Fprintf(w, "--- system ---\n%s\n", in.System)
	}
	for _, m := range in.Messages {
		fmt.Fprintf(w, "--- %s ---\n%s\n", m.Role, m.Content)
	}
	if in.Prompt != "" {
		fmt.Fprintf(w, "--- prompt ---\n%s\n", in.Prompt)
	}
	fmt.Fprintf(w, "--- ~%d tokens ---\n", tokens.Count(in.Text()))
	return nil
}

// runInvoke renders a template and calls the model, streaming when it can.
func runInvoke(w io.Writer, stdin *os.File, args []string) error {
	fs := flag.NewFlagSet("invoke", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pf := addPromptFlags(fs)
	configPath := fs.String("config", "", "path to config file")
	temperature := fs.Float64("temperature", -1, "sampling temperature (unset when negative)")
	topP := fs.Float64("top-p", -1, "nucleus sampling (unset when negative)")
	maxTokens := fs.Int("max-tokens", 0, "generation limit (unset when zero)")
	stream := fs.Bool("stream", true, "stream the reply when the adapter allows it")
	modelID, err := parseModelArgs(fs, args)
	if err != nil {
		return err
	}

	if *pf.input == "" {
		text, err := readInput(stdin, w)
		if err != nil {
			return err
		}
		*pf.input = text
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	adapter, in, err := render(adapters.NewDefaultRegistry(), modelID, pf, adapters.Options{Clients: newClients(cfg)})
	if err != nil {
		return err
	}

	kwargs := llm.ModelKwargs{Streaming: *stream}
	if *temperature >= 0 {
		kwargs.Temperature = llm.Float64(*temperature)
	}
	if *topP >= 0 {
		kwargs.TopP = llm.Float64(*topP)
	}
	if *maxTokens > 0 {
		kwargs.MaxTokens = llm.Int(*maxTokens)
	}

	model, err := adapter.LLM(kwargs)
	if err != nil {
		return err
	}

	out, err := llm.Run(context.Background(), model, in, func(text string) error {
		_, err := io.WriteString(w, text)
		return err
	})
	if err != nil {
		return err
	}
	if !model.Streaming() {
		fmt.Fprint(w, out.Text)
	}
	fmt.Fprintln(w)
	return nil
}

// readInput prompts for one line on a terminal, or reads all of piped stdin.
func readInput(stdin *os.File, w io.Writer) (string, error) {
	if term.IsTerminal(int(stdin.Fd())) {
		fmt.Fprint(w, "> ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// printHelp prints usage information
func printHelp(w io.Writer) {
	fmt.Fprintf(w, "%s - model adapter registry and prompt templates for Bedrock and SageMaker\n\n", appName)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s <command> [args]\n\n", appName)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the HTTP server [-config FILE] [-debug]")
	fmt.Fprintln(w, "  models       List adapter registrations in lookup order")
	fmt.Fprintln(w, "  resolve      Show the adapter for MODEL_ID and any shadowed matches")
	fmt.Fprintln(w, "  prompt       Render a template: MODEL_ID [-kind chat|qa|condense] [-input TEXT] [-context TEXT]")
	fmt.Fprintln(w, "  invoke       Call a model: MODEL_ID [-input TEXT] [-temperature F] [-top-p F] [-max-tokens N] [-stream]")
	fmt.Fprintln(w, "  version      Print version information")
	fmt.Fprintln(w, "  help         Show this help message")
	if names, err := listEmbeddedConfigs(); err == nil && len(names) > 0 {
		fmt.Fprintf(w, "\nEmbedded configs: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s resolve bedrock.anthropic.claude-v2\n", appName)
	fmt.Fprintf(w, "  %s prompt sagemaker.meta-llama2-13b-chat -kind qa -input \"Quoi ?\" -context \"...\"\n", appName)
	fmt.Fprintf(w, "  echo \"Bonjour\" | %s invoke bedrock.mistral.mistral-large-2402-v1:0\n", appName)
}
