package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/dusk-indust/transmute/internal/a2a"
	"github.com/dusk-indust/transmute/internal/metrics"
)

// Provider names accepted by New.
const (
	ProviderEcho      = "echo"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderA2A       = "a2a"
)

// Providers lists every provider name in display order.
var Providers = []string{
	ProviderOllama, ProviderOpenAI, ProviderAzure, ProviderAnthropic,
	ProviderGemini, ProviderA2A, ProviderEcho,
}

// Settings selects and configures a backend.
type Settings struct {
	Provider    string        `yaml:"provider" toml:"provider"`
	Model       string        `yaml:"model" toml:"model"`
	BaseURL     string        `yaml:"base_url" toml:"base_url"`
	APIKey      string        `yaml:"-" toml:"-"`
	APIVersion  string        `yaml:"api_version" toml:"api_version"`
	MaxTokens   int           `yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64       `yaml:"temperature" toml:"temperature"`
	Timeout     time.Duration `yaml:"timeout" toml:"timeout"`
	MaxRetries  uint          `yaml:"max_retries" toml:"max_retries"`

	// EchoHead is the prompt prefix length the echo provider returns.
	EchoHead int `yaml:"echo_head" toml:"echo_head"`
}

// Namespace identifies the provider and model, for cache keys and metrics.
func (s Settings) Namespace() string {
	return strings.ToLower(s.Provider) + "/" + s.Model
}

// New creates the undecorated backend named by s.Provider.
func New(ctx context.Context, s Settings) (Oracle, error) {
	switch strings.ToLower(s.Provider) {
	case ProviderEcho:
		return Echo{Head: s.EchoHead}, nil
	case ProviderOllama, "":
		return NewOllama(s.BaseURL, s.Model, s.Temperature, s.Timeout), nil
	case ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			APIKey:      s.APIKey,
			BaseURL:     s.BaseURL,
			Model:       s.Model,
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
			Timeout:     s.Timeout,
		}), nil
	case ProviderAzure:
		if s.BaseURL == "" {
			return nil, fmt.Errorf("oracle: azure requires base_url (the resource endpoint)")
		}
		if s.Model == "" {
			return nil, fmt.Errorf("oracle: azure requires model (the deployment name)")
		}
		return NewOpenAI(OpenAIOptions{
			APIKey:          s.APIKey,
			Model:           s.Model,
			MaxTokens:       s.MaxTokens,
			Temperature:     s.Temperature,
			Timeout:         s.Timeout,
			AzureEndpoint:   s.BaseURL,
			AzureAPIVersion: s.APIVersion,
		}), nil
	case ProviderAnthropic:
		return NewAnthropic(s.APIKey, s.BaseURL, s.Model, s.MaxTokens, s.Temperature, s.Timeout), nil
	case ProviderGemini:
		return NewGemini(ctx, s.APIKey, s.Model, s.Temperature)
	case ProviderA2A:
		if s.BaseURL == "" {
			return nil, fmt.Errorf("oracle: a2a requires base_url (the agent endpoint)")
		}
		var opts []a2a.ClientOption
		if s.Timeout > 0 {
			opts = append(opts, a2a.WithTimeout(s.Timeout))
		}
		return NewA2A(a2a.NewHTTPClient(opts...), s.BaseURL), nil
	default:
		return nil, fmt.Errorf("oracle: unknown provider %q (want one of %s)", s.Provider, strings.Join(Providers, ", "))
	}
}

// Deps are the optional collaborators Build wires around the backend.
type Deps struct {
	Cache    Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Logger   logr.Logger
}

// Build creates the backend for s and wraps it with retry, metrics and,
// when deps.Cache is set, caching. Cache hits skip both retry and metrics.
func Build(ctx context.Context, s Settings, deps Deps) (Oracle, error) {
	base, err := New(ctx, s)
	if err != nil {
		return nil, err
	}

	o := WithRetry(base, RetryOptions{MaxTries: s.MaxRetries + 1, Logger: deps.Logger})
	provider := strings.ToLower(s.Provider)
	if provider == "" {
		provider = ProviderOllama
	}
	o = WithMetrics(o, provider, deps.Metrics)
	if deps.Cache != nil {
		o = WithCache(o, deps.Cache, CacheOptions{
			Namespace: s.Namespace(),
			TTL:       deps.CacheTTL,
			Metrics:   deps.Metrics,
			Logger:    deps.Logger,
		})
	}
	return o, nil
}
