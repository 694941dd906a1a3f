package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notification carries the context of one arbitrage spread alert.
type Notification struct {
	TakenAt       time.Time
	OpportunityID string
	TokenA        string
	TokenB        string
	ExchangeA     string
	ExchangeB     string
	ProfitUSD     decimal.Decimal
	ProfitPct     decimal.Decimal
	GasCost       decimal.Decimal
	ThresholdUSD  decimal.Decimal
	Channels      []string
	AdditionalMsg string
}

// Pair renders the token pair, e.g. "ETH/USDC".
func (n Notification) Pair() string {
	return n.TokenA + "/" + n.TokenB
}

// Spread renders the venue spread, e.g. "uniswap -> curve".
func (n Notification) Spread() string {
	return n.ExchangeA + " -> " + n.ExchangeB
}

// Notifier delivers alerts to a channel.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes alerts through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify sends the alert text via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Time("taken_at", note.TakenAt).
		Str("pair", note.Pair()).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("alert dispatched via telegram")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Arbitrage Alert]\n")
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", note.TakenAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Pair: %s\n", note.Pair()))
	builder.WriteString(fmt.Sprintf("Spread: %s\n", note.Spread()))
	builder.WriteString(fmt.Sprintf("Profit: $%s (%s%%)\n", note.ProfitUSD.StringFixed(2), note.ProfitPct.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Gas: $%s\n", note.GasCost.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Threshold: $%s\n", note.ThresholdUSD.StringFixed(2)))
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
