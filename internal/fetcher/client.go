package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"defiwatch/internal/engine"
)

const (
	protocolsPath     = "/protocols"
	positionsPath     = "/positions"
	opportunitiesPath = "/opportunities"
)

// ClientOptions parameterise the HTTP data source.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client pulls portfolio collections from the aggregator API.
type Client struct {
	opts    ClientOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs an HTTP data source.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// FetchProtocols retrieves the protocol listings.
func (c *Client) FetchProtocols(ctx context.Context) ([]engine.Protocol, error) {
	var dtos []protocolDTO
	if err := c.getJSON(ctx, protocolsPath, nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch protocols: %w", err)
	}

	protocols := make([]engine.Protocol, 0, len(dtos))
	for _, dto := range dtos {
		protocols = append(protocols, engine.Protocol{
			ID:        dto.ID,
			Name:      dto.Name,
			Category:  engine.Category(dto.Category),
			TVL:       dto.TVL,
			APY:       dto.APY,
			RiskScore: dto.RiskScore,
			Volume24h: dto.Volume24h,
			Change24h: dto.Change24h,
			Active:    dto.Active,
		})
	}
	return protocols, nil
}

// FetchPositions retrieves the wallet's open positions.
func (c *Client) FetchPositions(ctx context.Context, wallet string) ([]engine.Position, error) {
	if wallet == "" {
		return nil, errors.New("wallet address required")
	}

	query := url.Values{"wallet": []string{wallet}}
	var dtos []positionDTO
	if err := c.getJSON(ctx, positionsPath, query, &dtos); err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}

	positions := make([]engine.Position, 0, len(dtos))
	for _, dto := range dtos {
		positions = append(positions, engine.Position{
			ID:             dto.ID,
			Strategy:       dto.Strategy,
			Principal:      dto.Principal,
			CurrentValue:   dto.CurrentValue,
			PnL:            dto.PnL,
			PnLPct:         dto.PnLPct,
			APY:            dto.APY,
			RiskLevel:      dto.RiskLevel,
			EnteredAt:      dto.EnteredAt,
			LastClaimAt:    dto.LastClaimAt,
			PendingRewards: dto.PendingRewards,
		})
	}
	return positions, nil
}

// FetchOpportunities retrieves detected arbitrage opportunities.
func (c *Client) FetchOpportunities(ctx context.Context) ([]engine.Opportunity, error) {
	var dtos []opportunityDTO
	if err := c.getJSON(ctx, opportunitiesPath, nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch opportunities: %w", err)
	}

	opportunities := make([]engine.Opportunity, 0, len(dtos))
	for _, dto := range dtos {
		opportunities = append(opportunities, engine.Opportunity{
			ID:           dto.ID,
			TokenA:       dto.TokenA,
			TokenB:       dto.TokenB,
			ExchangeA:    dto.ExchangeA,
			ExchangeB:    dto.ExchangeB,
			Profit:       dto.Profit,
			ProfitPct:    dto.ProfitPct,
			DiscoveredAt: dto.DiscoveredAt,
			Executed:     dto.Executed,
			GasCost:      dto.GasCost,
		})
	}
	return opportunities, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.baseURL == "" {
		return errors.New("base url not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "defiwatch/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type protocolDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	TVL       decimal.Decimal `json:"tvl"`
	APY       decimal.Decimal `json:"apy"`
	RiskScore int             `json:"riskScore"`
	Volume24h decimal.Decimal `json:"volume24h"`
	Change24h decimal.Decimal `json:"change24h"`
	Active    bool            `json:"active"`
}

type positionDTO struct {
	ID             string          `json:"id"`
	Strategy       string          `json:"strategy"`
	Principal      decimal.Decimal `json:"principal"`
	CurrentValue   decimal.Decimal `json:"currentValue"`
	PnL            decimal.Decimal `json:"pnl"`
	PnLPct         decimal.Decimal `json:"pnlPct"`
	APY            decimal.Decimal `json:"apy"`
	RiskLevel      int             `json:"riskLevel"`
	EnteredAt      time.Time       `json:"enteredAt"`
	LastClaimAt    time.Time       `json:"lastClaimAt"`
	PendingRewards decimal.Decimal `json:"pendingRewards"`
}

type opportunityDTO struct {
	ID           string          `json:"id"`
	TokenA       string          `json:"tokenA"`
	TokenB       string          `json:"tokenB"`
	ExchangeA    string          `json:"exchangeA"`
	ExchangeB    string          `json:"exchangeB"`
	Profit       decimal.Decimal `json:"profit"`
	ProfitPct    decimal.Decimal `json:"profitPct"`
	DiscoveredAt time.Time       `json:"discoveredAt"`
	Executed     bool            `json:"executed"`
	GasCost      decimal.Decimal `json:"gasCost"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("source api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("source api error (%d): %s", status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("source api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("source api error (%d)", status)
}

var _ Source = (*Client)(nil)
