// Package clients builds the shared AWS clients used by model adapters.
//
// DESIGN: The factory loads the AWS configuration once and hands out:
//   - a Bedrock runtime client (bedrockruntime SDK), and
//   - SageMaker targets whose HTTP client signs requests with SigV4.
//
// Clients are created lazily on first use and shared. Credentials come from
// static keys when configured, otherwise the default AWS credential chain
// (environment, shared files, IAM roles).
package clients

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/llm"
)

const (
	defaultRegion  = "us-east-1"
	sagemakerSvc   = "sagemaker"
	defaultTimeout = 120 * time.Second
	maxEndpointLen = 63
)

// Options configure the factory.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// BedrockEndpoint overrides the Bedrock runtime URL (VPC endpoints, tests).
	BedrockEndpoint string

	// SageMakerEndpoints maps model IDs to endpoint names.
	SageMakerEndpoints map[string]string

	// SageMakerURL overrides the invocation URL builder (tests).
	SageMakerURL func(region, endpoint string) string

	// Timeout bounds each SageMaker HTTP call.
	Timeout time.Duration

	// Transport is the base HTTP transport for SageMaker calls.
	Transport http.RoundTripper
}

// Factory lazily builds and caches AWS clients.
type Factory struct {
	opts Options

	cfgOnce sync.Once
	cfg     aws.Config
	cfgErr  error

	bedrockOnce sync.Once
	bedrock     *llm.BedrockClient
	bedrockErr  error

	smOnce   sync.Once
	smClient *http.Client
}

// NewFactory creates a factory. The region falls back to AWS_REGION,
// AWS_DEFAULT_REGION, then us-east-1.
func NewFactory(opts Options) *Factory {
	if opts.Region == "" {
		opts.Region = os.Getenv("AWS_REGION")
	}
	if opts.Region == "" {
		opts.Region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.SageMakerURL == nil {
		opts.SageMakerURL = llm.SageMakerURL
	}
	return &Factory{opts: opts}
}

// Region returns the resolved AWS region.
func (f *Factory) Region() string { return f.opts.Region }

func (f *Factory) awsConfig() (aws.Config, error) {
	f.cfgOnce.Do(func() {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(f.opts.Region),
		}
		if f.opts.AccessKeyID != "" && f.opts.SecretAccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(f.opts.AccessKeyID, f.opts.SecretAccessKey, f.opts.SessionToken),
			))
		}
		f.cfg, f.cfgErr = awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if f.cfgErr != nil {
			f.cfgErr = fmt.Errorf("load AWS config: %w", f.cfgErr)
		}
	})
	return f.cfg, f.cfgErr
}

// Bedrock returns the shared Bedrock runtime client.
func (f *Factory) Bedrock() (llm.BedrockAPI, error) {
	f.bedrockOnce.Do(func() {
		cfg, err := f.awsConfig()
		if err != nil {
			f.bedrockErr = err
			return
		}
		var optFns []func(*bedrockruntime.Options)
		if f.opts.BedrockEndpoint != "" {
			endpoint := f.opts.BedrockEndpoint
			optFns = append(optFns, func(o *bedrockruntime.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		f.bedrock = llm.NewBedrockClient(bedrockruntime.NewFromConfig(cfg, optFns...))

		log.Debug().
			Str("region", f.opts.Region).
			Str("endpoint", f.opts.BedrockEndpoint).
			Msg("bedrock runtime client created")
	})
	if f.bedrockErr != nil {
		return nil, f.bedrockErr
	}
	return f.bedrock, nil
}

// SageMaker resolves the endpoint for modelID and returns a target carrying
// the shared signed HTTP client.
func (f *Factory) SageMaker(modelID string) (*llm.SageMakerTarget, error) {
	cfg, err := f.awsConfig()
	if err != nil {
		return nil, err
	}
	f.smOnce.Do(func() {
		f.smClient = &http.Client{
			Timeout:   f.opts.Timeout,
			Transport: NewSigningTransport(cfg.Credentials, sagemakerSvc, f.opts.Region, f.opts.Transport),
		}
	})

	name, err := f.EndpointName(modelID)
	if err != nil {
		return nil, err
	}
	return &llm.SageMakerTarget{
		EndpointName: name,
		Region:       f.opts.Region,
		URL:          f.opts.SageMakerURL(f.opts.Region, name),
		Client:       f.smClient,
	}, nil
}

var invalidEndpointChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// EndpointName returns the configured endpoint for modelID, or one derived
// from it: characters outside [a-zA-Z0-9-] become "-", truncated to 63.
func (f *Factory) EndpointName(modelID string) (string, error) {
	if name, ok := f.opts.SageMakerEndpoints[modelID]; ok && name != "" {
		return name, nil
	}
	name := invalidEndpointChars.ReplaceAllString(modelID, "-")
	name = strings.Trim(name, "-")
	if len(name) > maxEndpointLen {
		name = strings.TrimRight(name[:maxEndpointLen], "-")
	}
	if name == "" {
		return "", fmt.Errorf("no SageMaker endpoint for model %q", modelID)
	}
	return name, nil
}
