package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates text with the chat completions API. It also serves Azure
// OpenAI deployments, where the model name is the deployment name.
type OpenAI struct {
	client      openai.Client
	provider    string
	model       string
	maxTokens   int
	temperature float64
}

// OpenAIOptions configures NewOpenAI.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	// AzureEndpoint switches the client to Azure OpenAI.
	AzureEndpoint   string
	AzureAPIVersion string
}

// NewOpenAI creates an OpenAI or Azure OpenAI oracle. SDK-level retries are
// disabled; use WithRetry instead.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	provider := "openai"
	if opts.AzureEndpoint != "" {
		provider = "azure"
		version := opts.AzureAPIVersion
		if version == "" {
			version = "2024-06-01"
		}
		reqOpts = append(reqOpts,
			azure.WithEndpoint(opts.AzureEndpoint, version),
			azure.WithAPIKey(opts.APIKey),
		)
	} else {
		if opts.APIKey != "" {
			reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
		}
		if opts.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
		}
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client:      openai.NewClient(reqOpts...),
		provider:    provider,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

// Invoke sends prompt as a single user message.
func (o *OpenAI) Invoke(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &HTTPError{Provider: o.provider, StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return "", fmt.Errorf("oracle: %s: %w", o.provider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
