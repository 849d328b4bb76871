package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is used when no model is configured.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements the CoreLLM interface for Google's Gemini API.
// Gemini supports schema-guided decoding: when a request carries a schema,
// the generation config constrains output to JSON and the schema is stated
// in the prompt.
type googleProvider struct {
	BaseProvider
	client          *genai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

// newGoogleProvider creates a new Google Gemini provider instance.
func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          client,
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}, nil
}

// DoRequest sends a request to the Gemini API and returns the normalized
// response.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	contents := p.buildContents(prompt, options)
	config := p.buildGenerationConfig(options)

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, contents, config)
	if err != nil {
		return Response{}, p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Content:   content,
		TokensIn:  p.inputTokenCount(resp.UsageMetadata, prompt),
		TokensOut: p.outputTokenCount(resp.UsageMetadata, content),
	}, nil
}

func (p *googleProvider) inputTokenCount(usage *genai.GenerateContentResponseUsageMetadata, prompt string) int {
	if usage != nil && usage.PromptTokenCount > 0 {
		return int(usage.PromptTokenCount)
	}
	return p.tokenCounter.EstimateTokens(prompt)
}

func (p *googleProvider) outputTokenCount(usage *genai.GenerateContentResponseUsageMetadata, content string) int {
	if usage != nil && usage.CandidatesTokenCount > 0 {
		return int(usage.CandidatesTokenCount)
	}
	return p.tokenCounter.EstimateTokens(content)
}

// buildContents renders the request content. Gemini has no separate system
// role, so the system prompt is prepended; a schema, when present, is
// stated inline so the JSON-constrained decoder targets the right shape.
func (p *googleProvider) buildContents(prompt string, options RequestOptions) []*genai.Content {
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}
	if options.Schema != nil {
		finalPrompt = fmt.Sprintf("%s\n\nRespond with a single JSON object matching this schema:\n%s",
			finalPrompt, string(options.Schema))
	}

	return []*genai.Content{genai.NewContentFromText(finalPrompt, genai.RoleUser)}
}

func (p *googleProvider) buildGenerationConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(ClampFloat64(*options.Temperature, 0.0, 2.0)))
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(ClampInt(options.MaxTokens, 1, math.MaxInt32))
	}
	if options.TopP != nil {
		config.TopP = genai.Ptr(float32(ClampFloat64(*options.TopP, 0.0, 1.0)))
	}
	if options.Schema != nil {
		// Constrain decoding to JSON output.
		config.ResponseMIMEType = "application/json"
	}

	return config
}

// handleError classifies Google API errors into ProviderErrors.
func (p *googleProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		if containsContentPolicyError(message) {
			return NewProviderError("google", ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}

func containsContentPolicyError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "safety") ||
		strings.Contains(lower, "blocked") ||
		strings.Contains(lower, "content policy")
}
