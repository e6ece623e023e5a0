package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// geminiSchemas caches converted schemas by name.
var geminiSchemas sync.Map // map[string]*genai.Schema

// GeminiProvider implements Provider over the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{
		client: client,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchemaFor(req.Schema)
	}

	contents := make([]*genai.Content, len(req.Messages))
	for i, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents[i] = &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}}
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, classifyGemini(err)
	}
	if err := geminiBlocked(result); err != nil {
		return nil, err
	}

	resp := &Response{
		Content:    json.RawMessage(result.Text()),
		Model:      p.model,
		StopReason: StopEnd,
	}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		resp.StopReason = StopMaxTokens
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return finish(ProviderGemini, req.Schema, resp)
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

// geminiBlocked reports a reply withheld by Gemini's safety filters. A
// learner's essay can trip them, and resending it will not help.
func geminiBlocked(result *genai.GenerateContentResponse) error {
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return &Error{Kind: KindRejected, Provider: ProviderGemini, Err: fmt.Errorf("prompt blocked: %s", fb.BlockReason)}
	}
	if len(result.Candidates) == 0 {
		return nil
	}
	switch reason := result.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return &Error{Kind: KindRejected, Provider: ProviderGemini, Err: fmt.Errorf("reply blocked: %s", reason)}
	}
	return nil
}

func geminiSchemaFor(s *Schema) *genai.Schema {
	if cached, ok := geminiSchemas.Load(s.Name); ok {
		return cached.(*genai.Schema)
	}
	gs := buildGeminiSchema(s.Definition)
	geminiSchemas.Store(s.Name, gs)
	return gs
}

// buildGeminiSchema converts a JSON Schema definition to Gemini's subset.
// Properties are ordered by name so replies come back in a stable order.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		schema.Type = geminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}
	if v, ok := number(def["minimum"]); ok {
		schema.Minimum = &v
	}
	if v, ok := number(def["maximum"]); ok {
		schema.Maximum = &v
	}

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[name] = buildGeminiSchema(propDef)
				schema.PropertyOrdering = append(schema.PropertyOrdering, name)
			}
		}
		sort.Strings(schema.PropertyOrdering)
	}
	schema.Required = stringList(def["required"])
	schema.Enum = stringList(def["enum"])
	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}
	return schema
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func geminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeString
}

func classifyGemini(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(ProviderGemini, apiErr.Code, 0, err)
	}
	return classifyStatus(ProviderGemini, 0, 0, err)
}
