// Package pipeline is the single entry point for one scoring/allocation
// run: fetch the universe, fill histories, score, rank, and optionally
// compose a target portfolio.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/advisory"
	"github.com/coinpilot/coinpilot/internal/config"
	"github.com/coinpilot/coinpilot/internal/domain/scoring"
	httpiface "github.com/coinpilot/coinpilot/internal/interfaces/http"
	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
	"github.com/coinpilot/coinpilot/internal/portfolio"
)

// MarketData is the market-data collaborator contract. Retry and provider
// fallback are its problem; the pipeline treats any error as opaque and
// drops only the affected candidate.
type MarketData interface {
	ListMarkets(ctx context.Context, vsCurrency string, page, perPage int) ([]*models.Candidate, error)
	PriceHistory(ctx context.Context, id, vsCurrency string, days int) (prices, volumes []float64, err error)
}

// Advisor proposes satellite allocations. An error means "fall back".
type Advisor interface {
	Propose(ctx context.Context, pol policy.Policy, candidates []advisory.CandidateSummary) ([]models.SatelliteProposal, error)
}

// RunStore persists run artifacts when configured.
type RunStore interface {
	SaveRun(ctx context.Context, runID, tolerance string, scores []models.CoinScore, allocation []models.AllocationItem) error
}

// Options configure one run.
type Options struct {
	VsCurrency    string
	Pages         int
	PerPage       int
	HistoryDays   int
	FetchWorkers  int
	Deadline      time.Duration
	Tolerance     policy.RiskTolerance
	Overrides     policy.Overrides
	MonthlyBudget float64
	BuildPlan     bool
}

// Result is the output of one run.
type Result struct {
	RunID    string
	Scores   []models.CoinScore
	Plan     *portfolio.Plan
	Fetched  int
	Dropped  int
	Duration time.Duration
}

// Runner wires the engine components for repeated runs. Runs are
// independent: all scoring state is per-invocation, so concurrent runs
// need no locking.
type Runner struct {
	market   MarketData
	advisor  Advisor
	store    RunStore
	metrics  *httpiface.Metrics
	cfg      *config.ScoringConfig
	roles    models.AssetRoles
	scorer   *scoring.Scorer
	filter   *portfolio.Filter
	composer *portfolio.Composer
	fallback *portfolio.FallbackSelector
}

// NewRunner assembles a runner. advisor, store, and metrics may be nil.
func NewRunner(market MarketData, advisor Advisor, store RunStore, metrics *httpiface.Metrics, cfg *config.ScoringConfig) *Runner {
	roles := models.DefaultAssetRoles()
	return &Runner{
		market:   market,
		advisor:  advisor,
		store:    store,
		metrics:  metrics,
		cfg:      cfg,
		roles:    roles,
		scorer:   scoring.NewScorer(cfg),
		filter:   portfolio.NewFilter(roles),
		composer: portfolio.NewComposer(roles),
		fallback: portfolio.NewFallbackSelector(),
	}
}

// Run executes one pass. It honors the overall deadline by proceeding with
// whatever subset of candidates has history by the time it expires.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	candidates, err := r.fetchUniverse(ctx, opts)
	if err != nil {
		return nil, err
	}

	fetched, dropped := r.fetchHistories(ctx, candidates, opts)

	scores := r.scorer.Rank(fetched)
	if r.metrics != nil {
		r.metrics.CandidatesScored.Add(float64(len(scores)))
	}

	result := &Result{
		RunID:   runID,
		Scores:  scores,
		Fetched: len(fetched),
		Dropped: dropped,
	}

	if opts.BuildPlan {
		plan, err := r.buildPlan(ctx, opts, fetched, scores)
		if err != nil {
			return nil, err
		}
		result.Plan = plan
	}

	if r.store != nil {
		var allocation []models.AllocationItem
		if result.Plan != nil {
			allocation = result.Plan.Allocation
		}
		if err := r.store.SaveRun(ctx, runID, string(opts.Tolerance), scores, allocation); err != nil {
			// Persistence is best-effort; a failed save never fails the run.
			log.Error().Err(err).Str("run_id", runID).Msg("Failed to persist run")
		}
	}

	result.Duration = time.Since(start)
	if r.metrics != nil {
		r.metrics.RunsTotal.Inc()
		r.metrics.RunDuration.Observe(result.Duration.Seconds())
	}

	log.Info().
		Str("run_id", runID).
		Int("scored", len(scores)).
		Int("dropped", dropped).
		Dur("duration", result.Duration).
		Msg("Run complete")

	return result, nil
}

func (r *Runner) fetchUniverse(ctx context.Context, opts Options) ([]*models.Candidate, error) {
	var candidates []*models.Candidate
	for page := 1; page <= opts.Pages; page++ {
		batch, err := r.market.ListMarkets(ctx, opts.VsCurrency, page, opts.PerPage)
		if err != nil {
			if len(candidates) > 0 {
				// Later pages failing still leaves a usable universe.
				log.Warn().Err(err).Int("page", page).Msg("Markets page failed; continuing with partial universe")
				break
			}
			return nil, fmt.Errorf("failed to list markets: %w", err)
		}
		candidates = append(candidates, batch...)
	}
	return candidates, nil
}

// fetchHistories fills price/volume series with a bounded worker pool. A
// single candidate's failure drops only that candidate; an expired
// deadline stops the pool and keeps what finished.
func (r *Runner) fetchHistories(ctx context.Context, candidates []*models.Candidate, opts Options) ([]*models.Candidate, int) {
	workers := opts.FetchWorkers
	if workers <= 0 {
		workers = 4
	}

	jobs := make(chan *models.Candidate)
	results := make(chan *models.Candidate)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				prices, volumes, err := r.market.PriceHistory(ctx, c.ID, opts.VsCurrency, opts.HistoryDays)
				if err != nil {
					log.Warn().Err(err).Str("coin_id", c.ID).Msg("History fetch failed; candidate dropped")
					r.countDrop("fetch_failed")
					results <- nil
					continue
				}
				c.PriceSeries = prices
				c.VolumeSeries = volumes
				results <- c
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range candidates {
			select {
			case jobs <- c:
			case <-ctx.Done():
				log.Warn().Msg("Run deadline reached; proceeding with fetched subset")
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var fetched []*models.Candidate
	dropped := 0
	for c := range results {
		if c == nil {
			dropped++
			continue
		}
		if !c.HasMinHistory() {
			log.Debug().Str("coin_id", c.ID).Int("points", len(c.PriceSeries)).Msg("Candidate below history floor")
			r.countDrop("short_history")
			dropped++
			continue
		}
		fetched = append(fetched, c)
	}

	return fetched, dropped
}

func (r *Runner) buildPlan(ctx context.Context, opts Options, candidates []*models.Candidate, scores []models.CoinScore) (*portfolio.Plan, error) {
	pol, err := policy.Resolve(opts.Tolerance, opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve policy: %w", err)
	}

	screened := r.filter.Screen(candidates, pol)

	satellites, usedFallback := r.selectSatellites(ctx, pol, screened, scores)

	items, warnings, err := r.composer.Compose(pol, satellites)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	items = portfolio.ApplyContributions(items, opts.MonthlyBudget)

	plan := portfolio.BuildPlan(pol, items, warnings, usedFallback)
	return &plan, nil
}

// selectSatellites tries the advisory plug-in once and switches to the
// deterministic fallback on any failure. The fallback output is
// structurally identical, so downstream composition cannot tell the paths
// apart.
func (r *Runner) selectSatellites(ctx context.Context, pol policy.Policy, screened []*models.Candidate, scores []models.CoinScore) ([]models.SatelliteProposal, bool) {
	if r.advisor != nil {
		summaries := r.summarize(screened, scores)
		proposals, err := r.advisor.Propose(ctx, pol, summaries)
		if err == nil {
			return proposals, false
		}
		log.Warn().Err(err).Msg("Advisory path failed; using deterministic fallback")
		if r.metrics != nil {
			r.metrics.AdvisoryFallbacks.Inc()
		}
	}

	return r.fallback.Select(pol, screened, scores), true
}

func (r *Runner) summarize(screened []*models.Candidate, scores []models.CoinScore) []advisory.CandidateSummary {
	scoreByID := make(map[string]float64, len(scores))
	for _, s := range scores {
		scoreByID[s.CoinID] = s.TotalScore
	}

	summaries := make([]advisory.CandidateSummary, 0, len(screened))
	for _, c := range screened {
		summaries = append(summaries, advisory.CandidateSummary{
			CoinID:     c.ID,
			Symbol:     c.Symbol,
			Name:       c.Name,
			Bucket:     portfolio.BucketOf(c),
			TotalScore: scoreByID[c.ID],
			Rank:       c.Rank,
		})
	}
	return summaries
}

func (r *Runner) countDrop(reason string) {
	if r.metrics != nil {
		r.metrics.CandidatesDropped.WithLabelValues(reason).Inc()
	}
}
