package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"voyago/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// FallbackReply is returned from Chat when the model produces no content.
const FallbackReply = "I couldn't generate a response."

// completionTimeout bounds every upstream call so a hung provider cannot
// hold a request open forever.
const completionTimeout = 60 * time.Second

// Service wraps the configured chat-completion provider. It is constructed
// once at startup and shared read-only across requests.
type Service struct {
	chatModel model.ToolCallingChatModel
}

// NewService builds the completion client for the configured provider.
func NewService(cfg *config.Config) (*Service, error) {
	provider := cfg.BasicConfig.Provider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return &Service{chatModel: chatModel}, nil
}

// Chat sends a free-text completion request and returns the raw reply. An
// empty reply is substituted with FallbackReply rather than surfaced to the
// caller.
func (s *Service) Chat(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	})
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return FallbackReply, nil
	}
	return resp.Content, nil
}

// CompleteJSON sends a completion request whose reply must be a single JSON
// object and parses it into a loosely-typed document. Unknown fields pass
// through untouched.
func (s *Service) CompleteJSON(ctx context.Context, system, user string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	system = strings.TrimSpace(system + "\nRespond with a single JSON object and nothing else.")
	resp, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	})
	if err != nil {
		return nil, fmt.Errorf("generate completion: %w", err)
	}
	doc, err := ParseJSONObject(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}
	return doc, nil
}

// ParseJSONObject extracts the JSON object from a model reply, tolerating
// markdown code fences and surrounding prose.
func ParseJSONObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	return doc, nil
}
