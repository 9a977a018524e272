// Package advisory talks to the external allocation-advisory plug-in. The
// plug-in is untrusted: its response is schema-validated field by field,
// and any failure (transport, timeout, malformed payload, validation)
// surfaces as an error so the caller switches to the deterministic
// fallback in full. There is never a partial merge.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// CandidateSummary is the per-candidate context handed to the advisor.
type CandidateSummary struct {
	CoinID     string        `json:"coin_id"`
	Symbol     string        `json:"symbol"`
	Name       string        `json:"name"`
	Bucket     models.Bucket `json:"bucket"`
	TotalScore float64       `json:"total_score"`
	Rank       int           `json:"rank"`
}

// Request is the structured context for one advisory call.
type Request struct {
	Tolerance          string             `json:"tolerance"`
	SatelliteTargetPct float64            `json:"satellite_target_pct"`
	PerAssetCapPct     float64            `json:"per_asset_cap_pct"`
	BucketCaps         map[string]float64 `json:"bucket_caps"`
	MaxSatellites      int                `json:"max_satellites"`
	Candidates         []CandidateSummary `json:"candidates"`
}

// response is the advisor's wire shape before validation.
type response struct {
	Satellites []models.SatelliteProposal `json:"satellites"`
}

// Config tunes the advisory client.
type Config struct {
	URL            string
	RequestTimeout time.Duration
	BreakerTimeout time.Duration
}

// Client performs the single bounded-timeout advisory request per
// portfolio run. No internal retries: a failed call is the fallback's
// problem, immediately.
type Client struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates an advisory client with a circuit breaker so a
// flapping advisor trips straight to fallback instead of burning the run
// deadline.
func NewClient(cfg Config) *Client {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "advisory",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Advisory circuit breaker state changed")
		},
	})

	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		breaker: breaker,
	}
}

// Propose requests satellite proposals from the advisor and validates them
// against the policy and the screened universe. Any error means "use the
// fallback"; the returned proposals are either fully valid or absent.
func (c *Client) Propose(ctx context.Context, pol policy.Policy, candidates []CandidateSummary) ([]models.SatelliteProposal, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("advisory endpoint not configured")
	}

	req := Request{
		Tolerance:          string(pol.Tolerance),
		SatelliteTargetPct: pol.SatelliteTargetPct,
		PerAssetCapPct:     pol.PerAssetCapPct,
		BucketCaps: map[string]float64{
			string(models.BucketLow):    pol.BucketCaps[models.BucketLow],
			string(models.BucketMedium): pol.BucketCaps[models.BucketMedium],
			string(models.BucketHigh):   pol.BucketCaps[models.BucketHigh],
		},
		MaxSatellites: pol.HoldingsTarget.Max - 3,
		Candidates:    candidates,
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("advisory call failed: %w", err)
	}

	proposals := result.([]models.SatelliteProposal)

	universe := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		universe[cand.CoinID] = true
	}
	if err := Validate(proposals, pol, universe); err != nil {
		return nil, fmt.Errorf("advisory response rejected: %w", err)
	}

	log.Info().Int("satellites", len(proposals)).Msg("Advisory proposals accepted")
	return proposals, nil
}

func (c *Client) call(ctx context.Context, req Request) ([]models.SatelliteProposal, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode advisory request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("advisory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advisory returned HTTP %d", resp.StatusCode)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode advisory response: %w", err)
	}

	log.Debug().
		Int("satellites", len(parsed.Satellites)).
		Dur("duration", time.Since(start)).
		Msg("Advisory response received")

	return parsed.Satellites, nil
}
