package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicDefaultModel is used when no model is configured.
const AnthropicDefaultModel = "claude-3-5-sonnet-20241022"

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider implements the CoreLLM interface for Anthropic's
// messages API. Anthropic has no native JSON-schema response format; when a
// request carries a schema the provider applies it at the generation layer
// through a forced tool call whose input schema is the requested schema,
// and surfaces the tool input as the structured payload.
type anthropicProvider struct {
	BaseProvider
	client          anthropic.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

// newAnthropicProvider creates a new Anthropic provider instance.
func newAnthropicProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithBaseURL(validatedURL))
	}

	return &anthropicProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          anthropic.NewClient(opts...),
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "anthropic"},
	}, nil
}

// DoRequest sends a request to the Anthropic API and returns the
// normalized response, including the forced tool input as structured data
// when a schema option was present.
func (p *anthropicProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	params, err := p.buildMessageParams(prompt, options)
	if err != nil {
		return Response{}, err
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, p.wrapError(err)
	}

	return p.processResponse(message, prompt)
}

func (p *anthropicProvider) buildMessageParams(prompt string, options RequestOptions) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if options.Temperature != nil {
		params.Temperature = anthropic.Float(ClampFloat64(*options.Temperature, 0.0, 1.0))
	}
	if options.TopP != nil {
		params.TopP = anthropic.Float(ClampFloat64(*options.TopP, 0.0, 1.0))
	}
	if options.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: options.System}}
	}

	if options.Schema != nil {
		tool, err := buildSchemaTool(options.SchemaName, options.Schema)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: tool.Name},
		}
	}

	return params, nil
}

// buildSchemaTool converts a raw JSON schema into a tool definition the
// model is forced to call, which is Anthropic's schema-guided output path.
func buildSchemaTool(name string, schema json.RawMessage) (anthropic.ToolParam, error) {
	var parsed struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		return anthropic.ToolParam{}, NewProviderError("anthropic", ErrorTypeBadRequest, 0,
			"invalid response schema", err)
	}

	return anthropic.ToolParam{
		Name:        name,
		Description: anthropic.String("Record the structured response"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: parsed.Properties,
			ExtraFields: map[string]any{
				"required": parsed.Required,
			},
		},
	}, nil
}

// processResponse extracts text, structured tool input, and token counts.
func (p *anthropicProvider) processResponse(message *anthropic.Message, originalPrompt string) (Response, error) {
	var responseText strings.Builder
	var structured json.RawMessage

	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			responseText.WriteString(content.Text)
		case anthropic.ToolUseBlock:
			structured = json.RawMessage(content.Input)
		}
	}

	content := responseText.String()
	if content == "" && structured == nil {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Content:    content,
		Structured: structured,
		TokensIn:   p.tokenCounter.GetTokenCount(int(message.Usage.InputTokens), originalPrompt),
		TokensOut:  p.tokenCounter.GetTokenCount(int(message.Usage.OutputTokens), content),
	}, nil
}

// wrapError classifies Anthropic SDK errors into ProviderErrors.
func (p *anthropicProvider) wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return p.errorClassifier.ClassifyHTTPError(apiErr.StatusCode, apiErr.Error(), err)
	}

	return NewProviderError("anthropic", ErrorTypeUnknown, 0, "request failed", err)
}
