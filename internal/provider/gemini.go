package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"thirdeye/internal/models"

	"google.golang.org/genai"
)

const systemInstruction = `You are a Senior Enterprise Solutions Architect and Forensic Digital Auditor alias "Third Eye".
Your goal is to provide a high-level, corporate-grade technical assessment of website architectures.

CRITICAL OUTPUT RULES:
1. NO MARKDOWN: Do not use asterisks, hashtags, or backticks in your string responses. Output must be clean, plain text.
2. PROFESSIONAL TONE: Use strict, logical, and business-centric wording.
3. NO FLUFF: Be concise. Get straight to the technical facts.
4. FORMATTING: Return pure string content suitable for direct insertion into executive reports.
5. CONTEXT: If the URL seems invalid or unreachable, set status to UNREACHABLE.`

const chatInstruction = `You are the 'Third Eye' Forensic Architect. Answer purely in plain text. No markdown. No asterisks. Be concise, technical, and direct. Focus on security, scalability, and architecture.`

// GeminiProvider implements Service against the Gemini API
type GeminiProvider struct {
	client        *genai.Client
	analysisModel string
	chatModel     string
}

// NewGeminiProvider creates a new Gemini-backed analysis provider
func NewGeminiProvider(ctx context.Context, apiKey, analysisModel, chatModel string) (Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if analysisModel == "" {
		analysisModel = "gemini-2.5-flash"
	}
	if chatModel == "" {
		chatModel = analysisModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:        client,
		analysisModel: analysisModel,
		chatModel:     chatModel,
	}, nil
}

// analysisSchema constrains the provider to the raw result wire shape.
// Only a subset is required; the record constructor fills the rest.
func analysisSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	strArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"status":              {Type: genai.TypeString, Enum: []string{"SUCCESS", "UNREACHABLE", "FAILED"}},
			"error_summary":       str,
			"backend":             str,
			"frontend":            str,
			"database":            str,
			"is_ecommerce":        {Type: genai.TypeBoolean},
			"ecommerce_platform":  str,
			"checkout_strategy":   str,
			"ai_content_score":    {Type: genai.TypeInteger},
			"ai_content_analysis": str,
			"fonts":               strArray,
			"colors":              strArray,
			"red_flags":           strArray,
			"improvements":        strArray,
			"security_score":      {Type: genai.TypeInteger},
			"seo_score":           {Type: genai.TypeInteger},
			"seo_issues":          strArray,
		},
		Required: []string{"status", "backend", "frontend", "security_score", "red_flags"},
	}
}

// Analyze requests a structured assessment for the target
func (p *GeminiProvider) Analyze(ctx context.Context, target string, mode models.Mode) (*models.RawProviderResult, error) {
	var prompt string
	if mode == models.ModeDeepDive {
		prompt = fmt.Sprintf("Perform a DEEP DIVE FORENSIC AUDIT on %s. Analyze the tech stack, security headers, potential CVEs, SEO technical structure (SSR, meta), and branding. If the site is e-commerce, detail the checkout flow (Shopify/Magento/Custom). Be exhaustive.", target)
	} else {
		prompt = fmt.Sprintf("Perform a SHORT EXECUTIVE SUMMARY on %s. Identify the main stack (Frontend/Backend), critical security risks (max 3), and an optimization overview.", target)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.analysisModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    analysisSchema(),
		// Low temperature for factual accuracy
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		text = "{}"
	}

	var raw models.RawProviderResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &raw, nil
}

// Chat answers one architect-conversation turn. Errors map to a canned
// offline message at the HTTP layer, never to a failed request.
func (p *GeminiProvider) Chat(ctx context.Context, history []models.ChatMessage, input, target string) (string, error) {
	prior := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == "model" {
			role = genai.RoleModel
		}
		prior = append(prior, genai.NewContentFromText(msg.Text, role))
	}

	chat, err := p.client.Chats.Create(ctx, p.chatModel, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	}, prior)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	question := input
	if target != "" {
		question = fmt.Sprintf("Context target: %s\n\n%s", target, input)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: question})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	return models.StripMarkup(resp.Text()), nil
}
