// Package notifier relays signals to a Telegram chat and answers chat
// commands from the signal store.
package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/model"
)

const DefaultTelegramURL = "https://api.telegram.org"

type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
	ProxyURL string
	// MinConfidence filters outgoing signals; NEUTRAL signals are only sent
	// when SendNeutral is set.
	MinConfidence int
	SendNeutral   bool
	MaxRetries    int
}

// Telegram sends messages via the Telegram Bot API.
type Telegram struct {
	cfg     TelegramConfig
	client  *http.Client
	backoff time.Duration
	log     zerolog.Logger
}

func NewTelegram(cfg TelegramConfig, log zerolog.Logger) (*Telegram, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, errors.New("telegram: bot token and chat id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTelegramURL
	}
	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("telegram proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &Telegram{
		cfg:     cfg,
		client:  &http.Client{Timeout: 35 * time.Second, Transport: transport},
		backoff: time.Second,
		log:     log.With().Str("component", "telegram").Logger(),
	}, nil
}

func (t *Telegram) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.cfg.BaseURL, t.cfg.BotToken, method)
}

// Send posts an HTML message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, respBody)
	}
	return nil
}

// SendWithRetry retries Send with exponential backoff.
func (t *Telegram) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		wait := t.backoff << uint(i)
		t.log.Warn().Err(err).Int("attempt", i+1).Dur("retry_in", wait).Msg("telegram send failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}

// Wants reports whether sig passes the outgoing filter.
func (t *Telegram) Wants(sig model.Signal) bool {
	if sig.Path == model.PathError || sig.Path == model.PathNoData {
		return false
	}
	if sig.Direction == model.DirectionNeutral && !t.cfg.SendNeutral {
		return false
	}
	return sig.Confidence >= t.cfg.MinConfidence
}

// Publish sends the formatted signal when it passes the filter.
func (t *Telegram) Publish(ctx context.Context, sig model.Signal) error {
	if !t.Wants(sig) {
		return nil
	}
	return t.SendWithRetry(ctx, FormatSignal(sig), t.cfg.MaxRetries)
}
