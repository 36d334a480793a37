package analysis

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/internal/version"
)

const systemInstruction = "You are a concise assistant that explains terminal command output. " +
	"Answer in Markdown. Lead with the most likely cause, then give concrete commands or code changes."

// GeminiClient is the subset of the Gemini SDK the analyzer needs
type GeminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// RealGeminiClient wraps the official SDK client to satisfy GeminiClient
type RealGeminiClient struct {
	client *genai.Client
}

// NewRealGeminiClient creates a new RealGeminiClient from an SDK client
func NewRealGeminiClient(client *genai.Client) *RealGeminiClient {
	return &RealGeminiClient{client: client}
}

// GenerateContent calls the SDK's GenerateContent method
func (c *RealGeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// GeminiAnalyzer implements Analyzer on the Gemini API
type GeminiAnalyzer struct {
	client   GeminiClient
	opts     Options
	snippets *SnippetExtractor
}

// NewGeminiAnalyzer creates an analyzer over an existing client
func NewGeminiAnalyzer(client GeminiClient, opts Options, snippets *SnippetExtractor) *GeminiAnalyzer {
	opts = opts.withDefaults()
	if snippets == nil {
		snippets = NewSnippetExtractor(opts.ContextLines, "")
	}
	return &GeminiAnalyzer{client: client, opts: opts, snippets: snippets}
}

// NewGeminiAnalyzerWithKey builds the SDK client from an API key
func NewGeminiAnalyzerWithKey(ctx context.Context, apiKey string, opts Options, snippets *SnippetExtractor) (*GeminiAnalyzer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.NewAnalysisError("no API key configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
		HTTPOptions: genai.HTTPOptions{
			Headers: http.Header{"User-Agent": []string{version.UserAgent()}},
		},
	})
	if err != nil {
		return nil, errors.NewAnalysisError("failed to create Gemini client", err)
	}
	return NewGeminiAnalyzer(NewRealGeminiClient(client), opts, snippets), nil
}

// Model returns the model requests are sent to
func (a *GeminiAnalyzer) Model() string {
	return a.opts.Model
}

// Analyze sends the output, any located source snippet and recent history
// to the model
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	snippet := ""
	if !req.Succeeded() {
		snippet = a.snippets.Extract(req.Output)
	}
	prompt := BuildPrompt(req, a.opts, snippet)
	logging.Debug("analysis prompt is %d bytes (snippet: %t)", len(prompt), snippet != "")

	text, err := a.generate(ctx, prompt, 0.2)
	if err != nil {
		return "", err
	}
	return text, nil
}

// SuggestCorrections asks the model which available command was meant
func (a *GeminiAnalyzer) SuggestCorrections(ctx context.Context, failed string, available []string) ([]string, error) {
	if len(available) == 0 {
		return []string{}, nil
	}

	prompt := BuildSuggestionPrompt(failed, available, a.opts.MaxSuggestions)
	text, err := a.generate(ctx, prompt, 0)
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(text, available, a.opts.MaxSuggestions), nil
}

func (a *GeminiAnalyzer) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}}
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)},
		},
	}

	resp, err := a.client.GenerateContent(ctx, a.opts.Model, contents, config)
	if err != nil {
		return "", errors.NewAnalysisError("analysis request failed", err).WithContext("model", a.opts.Model)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errors.NewAnalysisError("analysis returned no text", nil).WithContext("model", a.opts.Model)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
