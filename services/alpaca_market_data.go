package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/sirupsen/logrus"

	"spread-trader/interfaces"
)

// AlpacaMarketData implements MarketDataSource against Alpaca: the v3
// SDK for the stock side, the v1beta1 options endpoints over plain
// HTTP for the option side. Every failure degrades to absent data; no
// error crosses into the engine.
type AlpacaMarketData struct {
	apiKey    string
	secretKey string
	baseURL   string
	stocks    *marketdata.Client
	client    *http.Client
	logger    *logrus.Logger

	cacheTTL time.Duration
	cache    map[string]quoteCacheEntry
	mu       sync.RWMutex
	now      func() time.Time
}

type quoteCacheEntry struct {
	insertedAt time.Time
	value      interface{}
}

// NewAlpacaMarketData creates a new Alpaca market data source with a
// 60 second quote cache.
func NewAlpacaMarketData(apiKey, secretKey string) *AlpacaMarketData {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &AlpacaMarketData{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   "https://data.alpaca.markets",
		stocks: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: secretKey,
		}),
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		cacheTTL: 60 * time.Second,
		cache:    make(map[string]quoteCacheEntry),
		now:      time.Now,
	}
}

// alpacaOptionSnapshot mirrors the v1beta1 options snapshot payload.
type alpacaOptionSnapshot struct {
	Snapshots map[string]alpacaOptionQuoteTrade `json:"snapshots"`
}

type alpacaOptionQuoteTrade struct {
	LatestQuote *alpacaOptionQuote `json:"latestQuote"`
	LatestTrade *alpacaOptionTrade `json:"latestTrade"`
}

type alpacaOptionQuote struct {
	Timestamp time.Time `json:"t"`
	BidPrice  float64   `json:"bp"`
	AskPrice  float64   `json:"ap"`
}

type alpacaOptionTrade struct {
	Timestamp time.Time `json:"t"`
	Price     float64   `json:"p"`
}

// alpacaContractsResponse mirrors the option contracts listing.
type alpacaContractsResponse struct {
	OptionContracts []alpacaContract `json:"option_contracts"`
	NextPageToken   *string          `json:"next_page_token"`
}

type alpacaContract struct {
	Symbol           string  `json:"symbol"`
	UnderlyingSymbol string  `json:"underlying_symbol"`
	ExpirationDate   string  `json:"expiration_date"`
	StrikePrice      float64 `json:"strike_price"`
	Type             string  `json:"type"`
	OpenInterest     *int64  `json:"open_interest"`
}

// GetOptionQuote fetches the latest quote for a single contract. Nil
// on any failure.
func (s *AlpacaMarketData) GetOptionQuote(ctx context.Context, symbol, expiration string, strike float64, optionType string) *interfaces.Quote {
	occ, err := occSymbol(symbol, expiration, strike, optionType)
	if err != nil {
		s.logger.WithError(err).Warn("Cannot build option symbol")
		return nil
	}

	cacheKey := "option:" + occ
	if cached, ok := s.getCache(cacheKey); ok {
		if quote, ok := cached.(*interfaces.Quote); ok {
			return quote
		}
	}

	var snapshot alpacaOptionSnapshot
	endpoint := fmt.Sprintf("%s/v1beta1/options/snapshots/%s", s.baseURL, occ)
	if err := s.getJSON(ctx, endpoint, &snapshot); err != nil {
		s.logger.WithError(err).WithField("symbol", occ).Warn("Failed to fetch option quote")
		return nil
	}

	raw, ok := snapshot.Snapshots[occ]
	if !ok {
		return nil
	}

	quote := &interfaces.Quote{}
	if raw.LatestQuote != nil {
		if raw.LatestQuote.BidPrice > 0 {
			bid := raw.LatestQuote.BidPrice
			quote.Bid = &bid
		}
		if raw.LatestQuote.AskPrice > 0 {
			ask := raw.LatestQuote.AskPrice
			quote.Ask = &ask
		}
		ts := raw.LatestQuote.Timestamp
		quote.Timestamp = &ts
	}
	if raw.LatestTrade != nil && raw.LatestTrade.Price > 0 {
		last := raw.LatestTrade.Price
		quote.Last = &last
	}

	if quote.Bid == nil && quote.Ask == nil && quote.Last == nil {
		return nil
	}

	s.setCache(cacheKey, quote)
	return quote
}

// GetUnderlyingPrice returns the latest trade price of the underlying.
// Nil on any failure.
func (s *AlpacaMarketData) GetUnderlyingPrice(ctx context.Context, symbol string) *float64 {
	if ctx.Err() != nil {
		return nil
	}

	cacheKey := "underlying:" + symbol
	if cached, ok := s.getCache(cacheKey); ok {
		if price, ok := cached.(*float64); ok {
			return price
		}
	}

	trade, err := s.stocks.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch underlying price")
		return nil
	}
	if trade == nil || trade.Price <= 0 {
		return nil
	}

	price := trade.Price
	s.setCache(cacheKey, &price)
	return &price
}

// GetPriceHistory returns up to days daily bars, oldest first. Empty
// on any failure.
func (s *AlpacaMarketData) GetPriceHistory(ctx context.Context, symbol string, days int) []*interfaces.PriceBar {
	if ctx.Err() != nil {
		return nil
	}

	start := s.now().AddDate(0, 0, -days*2) // pad for non-trading days
	bars, err := s.stocks.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
	})
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch price history")
		return nil
	}

	history := make([]*interfaces.PriceBar, 0, len(bars))
	for _, bar := range bars {
		history = append(history, &interfaces.PriceBar{
			Date:   bar.Timestamp,
			Close:  bar.Close,
			Volume: float64(bar.Volume),
		})
	}
	return tailBars(history, days)
}

// tailBars keeps the most recent days bars. Bars arrive oldest first,
// so a request limit would truncate the old end of the window; trimming
// has to drop from the front instead.
func tailBars(history []*interfaces.PriceBar, days int) []*interfaces.PriceBar {
	if days <= 0 || len(history) <= days {
		return history
	}
	return history[len(history)-days:]
}

// GetOptionChain lists contracts for one expiration and joins in
// snapshot quotes. Empty on any failure.
func (s *AlpacaMarketData) GetOptionChain(ctx context.Context, symbol, expiration, optionType string) []*interfaces.OptionContract {
	params := url.Values{}
	params.Set("underlying_symbols", symbol)
	params.Set("expiration_date", expiration)
	params.Set("type", optionType)
	params.Set("limit", "500")

	var listing alpacaContractsResponse
	endpoint := fmt.Sprintf("%s/v1beta1/options/contracts?%s", s.baseURL, params.Encode())
	if err := s.getJSON(ctx, endpoint, &listing); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"symbol":     symbol,
			"expiration": expiration,
		}).Warn("Failed to fetch option chain")
		return nil
	}

	quotes := s.fetchChainQuotes(ctx, symbol, expiration, optionType)

	chain := make([]*interfaces.OptionContract, 0, len(listing.OptionContracts))
	for _, raw := range listing.OptionContracts {
		contract := &interfaces.OptionContract{
			Symbol:       raw.UnderlyingSymbol,
			Expiration:   raw.ExpirationDate,
			Strike:       raw.StrikePrice,
			OptionType:   raw.Type,
			OpenInterest: raw.OpenInterest,
		}
		if quote, ok := quotes[raw.Symbol]; ok {
			contract.Bid = quote.Bid
			contract.Ask = quote.Ask
			contract.Last = quote.Last
		}
		chain = append(chain, contract)
	}

	s.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"count":  len(chain),
	}).Debug("Fetched option chain")
	return chain
}

// GetIVHistory returns historical implied volatility observations,
// oldest first. Alpaca exposes no IV history endpoint on the market
// data plan this targets, so the source reports absent and the IV gate
// blocks accordingly.
func (s *AlpacaMarketData) GetIVHistory(ctx context.Context, symbol string) []float64 {
	if ctx.Err() != nil {
		return nil
	}

	s.logger.WithField("symbol", symbol).Debug("IV history source not configured")
	return nil
}

// fetchChainQuotes pulls the snapshot quotes for a whole expiration in
// one call, keyed by contract symbol.
func (s *AlpacaMarketData) fetchChainQuotes(ctx context.Context, symbol, expiration, optionType string) map[string]*interfaces.Quote {
	params := url.Values{}
	params.Set("type", optionType)
	params.Set("expiration_date", expiration)
	params.Set("limit", "500")

	var snapshot alpacaOptionSnapshot
	endpoint := fmt.Sprintf("%s/v1beta1/options/snapshots/%s?%s", s.baseURL, symbol, params.Encode())
	if err := s.getJSON(ctx, endpoint, &snapshot); err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch chain snapshots")
		return nil
	}

	quotes := make(map[string]*interfaces.Quote, len(snapshot.Snapshots))
	for occ, raw := range snapshot.Snapshots {
		quote := &interfaces.Quote{}
		if raw.LatestQuote != nil {
			if raw.LatestQuote.BidPrice > 0 {
				bid := raw.LatestQuote.BidPrice
				quote.Bid = &bid
			}
			if raw.LatestQuote.AskPrice > 0 {
				ask := raw.LatestQuote.AskPrice
				quote.Ask = &ask
			}
		}
		if raw.LatestTrade != nil && raw.LatestTrade.Price > 0 {
			last := raw.LatestTrade.Price
			quote.Last = &last
		}
		quotes[occ] = quote
	}
	return quotes
}

func (s *AlpacaMarketData) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("APCA-API-KEY-ID", s.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *AlpacaMarketData) getCache(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.insertedAt) > s.cacheTTL {
		return nil, false
	}
	return entry.value, true
}

func (s *AlpacaMarketData) setCache(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = quoteCacheEntry{insertedAt: s.now(), value: value}
}

// occSymbol builds an OCC option symbol: underlying, yymmdd, P/C, and
// the strike in thousandths padded to eight digits.
func occSymbol(symbol, expiration string, strike float64, optionType string) (string, error) {
	expiry, err := time.Parse("2006-01-02", expiration)
	if err != nil {
		return "", fmt.Errorf("invalid expiration %q: %w", expiration, err)
	}

	side := "P"
	if optionType == "call" {
		side = "C"
	}

	return fmt.Sprintf("%s%s%s%08d", symbol, expiry.Format("060102"), side, int64(strike*1000)), nil
}
