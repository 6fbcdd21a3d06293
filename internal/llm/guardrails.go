package llm

import (
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// Guardrail environment variables.
const (
	EnvGuardrailsID      = "BEDROCK_GUARDRAILS_ID"
	EnvGuardrailsVersion = "BEDROCK_GUARDRAILS_VERSION"

	defaultGuardrailsVersion = "DRAFT"
)

// Guardrails identifies a Bedrock guardrail applied to model calls.
type Guardrails struct {
	Identifier string `json:"identifier"`
	Version    string `json:"version"`
}

// GuardrailsFromEnv reads the guardrail settings at call time. It returns nil
// when BEDROCK_GUARDRAILS_ID is unset or empty so that no guardrail block is
// sent at all.
func GuardrailsFromEnv() *Guardrails {
	return guardrailsFrom(os.Getenv)
}

func guardrailsFrom(getenv func(string) string) *Guardrails {
	id := getenv(EnvGuardrailsID)
	if id == "" {
		return nil
	}
	version := getenv(EnvGuardrailsVersion)
	if version == "" {
		version = defaultGuardrailsVersion
	}
	return &Guardrails{Identifier: id, Version: version}
}

func (g *Guardrails) converse() *types.GuardrailConfiguration {
	if g == nil {
		return nil
	}
	return &types.GuardrailConfiguration{
		GuardrailIdentifier: aws.String(g.Identifier),
		GuardrailVersion:    aws.String(g.Version),
	}
}

func (g *Guardrails) converseStream() *types.GuardrailStreamConfiguration {
	if g == nil {
		return nil
	}
	return &types.GuardrailStreamConfiguration{
		GuardrailIdentifier: aws.String(g.Identifier),
		GuardrailVersion:    aws.String(g.Version),
	}
}
