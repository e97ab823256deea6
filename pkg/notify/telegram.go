package notify

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/10spoon/ppomppurelaymonitor/pkg/whttp"
)

// Sender is the delivery capability: push one message, report success.
type Sender interface {
	Send(text string) error
}

// Telegram sends messages through the Bot API's sendMessage endpoint.
type Telegram struct {
	BotToken string
	ChatID   string
	Client   *retryablehttp.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{BotToken: botToken, ChatID: chatID, Client: whttp.NewClient()}
}

func (t *Telegram) Send(text string) error {
	// Missing credentials short-circuit before any network I/O.
	if t.BotToken == "" || t.ChatID == "" {
		return errors.New("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set")
	}

	payload, err := json.Marshal(map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "POST",
		URL:    "https://api.telegram.org/bot" + t.BotToken + "/sendMessage",
		Body:   string(payload),
		Headers: []whttp.WHTTPHeader{
			{Name: "Content-Type", Value: "application/json"},
		},
	}, t.Client)
	if err != nil {
		return err
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("telegram API returned HTTP %d: %s", res.StatusCode, res.BodyString)
	}
	return nil
}
