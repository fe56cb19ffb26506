package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are an assistant inside an EV route planning app.

You help with:
- Charging slot prediction and station choice.
- Route planning and whether the user can safely reach destination.
- Explaining alerts (low battery, low predicted SoC, next service due, battery health, etc).
- Pointing out the nearest selected station when relevant.

You are given JSON context about the user's current EV state plus a precomputed alerts summary.
When the user asks about alerts or safety, ALWAYS mention:
- Any low-battery or low predicted SoC situations.
- If next service is due soon.
- The nearest/selected station name as an option if it exists.

Answer concretely, short, and focused on actions the driver can take. Prefer bullet points. If you lack data, say so briefly.`

// ErrEmptyReply is returned when the model answers without content.
var ErrEmptyReply = errors.New("empty completion")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI forwards the question and the enriched context to a chat
// completion model.
type OpenAI struct {
	client      chatClient
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAI builds a responder from conf. conf.BaseURL overrides the API
// endpoint, e.g. for a proxy.
func NewOpenAI(conf Conf) *OpenAI {
	conf.SetDefaults()
	cfg := openai.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		cfg.BaseURL = conf.BaseURL
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       conf.Model,
		temperature: conf.Temperature,
		maxTokens:   conf.MaxTokens,
	}
}

// Enrich returns a copy of evctx with the computed alerts and a summary of
// the selected station.
func Enrich(evctx map[string]any) map[string]any {
	out := maps.Clone(evctx)
	if out == nil {
		out = map[string]any{}
	}
	out["assistantAlerts"] = ComputeAlerts(evctx)

	var summary map[string]any
	if st := object(evctx["selectedStation"]); st != nil {
		name, _ := st["name"].(string)
		if name == "" {
			name = "Unknown station"
		}
		summary = map[string]any{"name": name, "location": st["location"]}
	}
	out["nearestStationSummary"] = summary
	return out
}

func (o *OpenAI) Reply(ctx context.Context, message string, evctx map[string]any) (string, error) {
	payload, err := json.Marshal(Enrich(evctx))
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context: %s\n\nUser: %s", payload, message)},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
