package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/10spoon/ppomppurelaymonitor/pkg/whttp"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter talks to the OpenRouter chat-completions API, which is
// OpenAI-compatible. It implements both ModelCaller and ModelLister.
type OpenRouter struct {
	client    openai.Client
	MaxTokens int64
}

// NewOpenRouter returns nil when no API key is configured, which the
// orchestrator turns into a recorded error entry instead of a network call.
func NewOpenRouter(apiKey string) *OpenRouter {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &OpenRouter{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(openRouterBaseURL),
		),
		MaxTokens: 1024,
	}
}

func (c *OpenRouter) Invoke(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(model),
		MaxTokens: openai.Int(c.MaxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ListFreeModels fetches the model catalog and keeps the zero-cost entries.
// OpenRouter marks them with a ":free" id suffix and a zero prompt price.
func (c *OpenRouter) ListFreeModels(ctx context.Context) ([]string, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    openRouterBaseURL + "/models",
	}, whttp.NewClient())
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, errors.New("model catalog fetch failed")
	}
	return parseFreeModels(res.BodyString), nil
}

func parseFreeModels(body string) []string {
	var free []string
	for _, model := range gjson.Get(body, "data").Array() {
		id := gjson.Get(model.Raw, "id").Str
		if id == "" {
			continue
		}
		promptPrice := gjson.Get(model.Raw, "pricing.prompt").Str
		if strings.HasSuffix(id, ":free") || promptPrice == "0" {
			free = append(free, id)
		}
	}
	return free
}
