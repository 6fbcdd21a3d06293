package config

import (
	"fmt"
	"time"
)

// AWSConfig holds the settings shared by the Bedrock and SageMaker clients.
// Empty credentials fall back to the SDK default chain.
type AWSConfig struct {
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	SessionToken    string        `yaml:"session_token"`
	BedrockEndpoint string        `yaml:"bedrock_endpoint"` // Optional base URL override
	Timeout         time.Duration `yaml:"timeout"`          // SageMaker HTTP timeout
}

// Validate checks that static credentials are given as a pair.
func (a AWSConfig) Validate() error {
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return fmt.Errorf("aws.access_key_id and aws.secret_access_key must be set together")
	}
	if a.SessionToken != "" && a.AccessKeyID == "" {
		return fmt.Errorf("aws.session_token requires static credentials")
	}
	if a.Timeout < 0 {
		return fmt.Errorf("invalid aws.timeout: %s", a.Timeout)
	}
	return nil
}

// SageMakerConfig maps model IDs to deployed endpoint names. Models absent
// from the map use a name derived from the model ID.
type SageMakerConfig struct {
	Endpoints map[string]string `yaml:"endpoints"`
}

// Validate rejects empty endpoint names.
func (s SageMakerConfig) Validate() error {
	for model, endpoint := range s.Endpoints {
		if endpoint == "" {
			return fmt.Errorf("sagemaker.endpoints[%s]: endpoint name is required", model)
		}
	}
	return nil
}
