package generator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client     openai.Client
	model      string
	opts       Options
	echoPrompt bool
}

// NewOpenAI falls back to OPENAI_API_KEY when cfg.APIKey is empty. A custom
// BaseURL without a key is allowed for self-hosted servers.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or generator.api_key)", ErrInvalidConfig)
	}

	reqOpts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutMs > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		}))
	}

	opts := cfg.Options
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &OpenAI{
		client:     openai.NewClient(reqOpts...),
		model:      cfg.Model,
		opts:       opts,
		echoPrompt: cfg.EchoPrompt,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrGenerationFailed)
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if o.opts.Temperature > 0 {
		params.Temperature = openai.Float(o.opts.Temperature)
	}
	if o.opts.TopP > 0 {
		params.TopP = openai.Float(o.opts.TopP)
	}
	if o.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.opts.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGenerationFailed)
	}
	text := completion.Choices[0].Message.Content
	if o.echoPrompt {
		text = prompt + text
	}
	return text, nil
}
