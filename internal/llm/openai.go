package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"sage/internal/assistant"
)

const (
	// maxTokens keeps spoken replies short
	maxTokens   = 150
	temperature = 0.7
)

// Client adapts the OpenAI chat completions API to assistant.Completer.
type Client struct {
	api   openai.Client
	model openai.ChatModel
}

type Options struct {
	APIKey     string
	Model      string       // defaults to gpt-5-nano
	HTTPClient *http.Client // optional, e.g. a SOCKS-proxied client
}

func New(opts Options) *Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	model := openai.ChatModel(opts.Model)
	if opts.Model == "" {
		model = openai.ChatModelGPT5Nano
	}

	return &Client{
		api:   openai.NewClient(reqOpts...),
		model: model,
	}
}

// Complete sends the system instruction plus the rolling history and returns
// the model's reply text.
func (c *Client) Complete(ctx context.Context, system string, turns []assistant.Turn) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            buildMessages(system, turns),
		Model:               c.model,
		MaxCompletionTokens: openai.Int(maxTokens),
		Temperature:         openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}

	return content, nil
}

func buildMessages(system string, turns []assistant.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	msgs = append(msgs, openai.SystemMessage(system))
	for _, t := range turns {
		switch t.Role {
		case assistant.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	return msgs
}
