package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"paybridge/internal/clients"
	"paybridge/internal/config"
	"paybridge/internal/metrics"
	"paybridge/internal/models"
)

// ErrNoRouteAvailable is returned when every configured provider failed
// or produced no usable route.
var ErrNoRouteAvailable = errors.New("no route available from any provider")

// QuoteService fans a quote request out to every enabled provider and
// ranks the surviving quotes. Side-effect free: nothing is stored.
type QuoteService struct {
	providers []clients.BridgeProvider
	priority  map[string]int

	settlement  config.SettlementConfig
	timeCeiling int // seconds; slower routes are excluded, not deprioritized
	timeout     time.Duration
}

// NewQuoteService builds the aggregator over a provider set. Priority
// ranks tie-breaks; providers missing from the map sort last.
func NewQuoteService(providers []clients.BridgeProvider, priority map[string]int, settlement config.SettlementConfig, timeCeilingSeconds int, providerTimeout time.Duration) *QuoteService {
	return &QuoteService{
		providers:   providers,
		priority:    priority,
		settlement:  settlement,
		timeCeiling: timeCeilingSeconds,
		timeout:     providerTimeout,
	}
}

// NewQuoteServiceFromConfig wires the aggregator from the loaded config.
func NewQuoteServiceFromConfig(providers []clients.BridgeProvider) *QuoteService {
	cfg := config.AppConfig
	priority := make(map[string]int, len(cfg.Providers))
	for _, p := range cfg.Providers {
		priority[p.Name] = p.Priority
	}
	return NewQuoteService(
		providers,
		priority,
		cfg.Settlement,
		cfg.Quotes.MaxDurationSeconds,
		time.Duration(cfg.Quotes.ProviderTimeout)*time.Second,
	)
}

// GetQuotes queries all providers concurrently and returns the ranked
// result. A zero or negative amount short-circuits to an empty result
// without touching any provider.
func (s *QuoteService) GetQuotes(ctx context.Context, req *models.QuoteRequest) (*models.QuoteResult, error) {
	if _, ok := req.AmountWei(); !ok {
		return &models.QuoteResult{All: []*models.BridgeQuote{}, FetchedAt: time.Now()}, nil
	}

	providerReq := &clients.ProviderQuoteRequest{
		FromChainID: req.FromChainID,
		FromToken:   req.FromToken,
		FromAmount:  req.FromAmount,
		ToChainID:   s.settlement.ChainID,
		ToToken:     s.settlement.TokenAddress,
		FromAddress: req.UserAddress,
		ToAddress:   req.RecipientAddress,
	}

	type outcome struct {
		quote *models.BridgeQuote
		err   error
		name  string
	}

	results := make(chan outcome, len(s.providers))
	var wg sync.WaitGroup
	for _, provider := range s.providers {
		wg.Add(1)
		go func(p clients.BridgeProvider) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			quote, err := p.GetQuote(pctx, providerReq)
			metrics.QuoteLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

			results <- outcome{quote: quote, err: err, name: p.Name()}
		}(provider)
	}
	wg.Wait()
	close(results)

	var all []*models.BridgeQuote
	for res := range results {
		if res.err != nil {
			metrics.QuoteRequests.WithLabelValues(res.name, "error").Inc()
			log.Printf("⚠️ Provider %s failed: %v", res.name, res.err)
			continue
		}
		metrics.QuoteRequests.WithLabelValues(res.name, "ok").Inc()
		all = append(all, res.quote)
	}

	if len(all) == 0 {
		return nil, ErrNoRouteAvailable
	}

	s.rank(all)
	best := s.selectBest(all)
	if best != nil {
		metrics.QuoteBestSelected.WithLabelValues(best.Provider).Inc()
	}

	return &models.QuoteResult{
		Best:      best,
		All:       all,
		FetchedAt: time.Now(),
	}, nil
}

// rank orders quotes by output amount descending, then gas cost, then
// configured provider priority.
func (s *QuoteService) rank(quotes []*models.BridgeQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		cmp := quotes[i].ToAmountWei().Cmp(quotes[j].ToAmountWei())
		if cmp != 0 {
			return cmp > 0
		}
		if quotes[i].GasUSD != quotes[j].GasUSD {
			return quotes[i].GasUSD < quotes[j].GasUSD
		}
		return s.providerPriority(quotes[i].Provider) < s.providerPriority(quotes[j].Provider)
	})
}

// selectBest returns the top-ranked quote within the time ceiling.
// Quotes exceeding the ceiling are excluded from selection entirely.
func (s *QuoteService) selectBest(ranked []*models.BridgeQuote) *models.BridgeQuote {
	for _, quote := range ranked {
		if s.timeCeiling > 0 && quote.EstimatedTimeSeconds > s.timeCeiling {
			continue
		}
		return quote
	}
	return nil
}

func (s *QuoteService) providerPriority(name string) int {
	if prio, ok := s.priority[name]; ok {
		return prio
	}
	return int(^uint(0) >> 1)
}

// ProviderByName returns the provider integration for a quote's provider
// field; used by the executor to fetch transaction data.
func (s *QuoteService) ProviderByName(name string) (clients.BridgeProvider, bool) {
	for _, p := range s.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
