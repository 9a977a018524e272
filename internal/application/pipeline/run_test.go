package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpilot/coinpilot/internal/advisory"
	"github.com/coinpilot/coinpilot/internal/config"
	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// fakeMarket serves a canned universe and per-coin histories.
type fakeMarket struct {
	mu         sync.Mutex
	universe   []*models.Candidate
	histories  map[string][]float64
	failListAt int
	failIDs    map[string]bool
	delay      time.Duration
	calls      int
}

func (f *fakeMarket) ListMarkets(_ context.Context, _ string, page, perPage int) ([]*models.Candidate, error) {
	if f.failListAt > 0 && page >= f.failListAt {
		return nil, errors.New("markets unavailable")
	}

	start := (page - 1) * perPage
	if start >= len(f.universe) {
		return []*models.Candidate{}, nil
	}
	end := start + perPage
	if end > len(f.universe) {
		end = len(f.universe)
	}
	return f.universe[start:end], nil
}

func (f *fakeMarket) PriceHistory(ctx context.Context, id, _ string, _ int) ([]float64, []float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	if f.failIDs[id] {
		return nil, nil, fmt.Errorf("history unavailable for %s", id)
	}

	prices, ok := f.histories[id]
	if !ok {
		prices = steadySeries(40)
	}
	volumes := make([]float64, len(prices))
	for i := range volumes {
		volumes[i] = 1e8
	}
	return prices, volumes, nil
}

// fakeAdvisor returns canned proposals or a canned failure.
type fakeAdvisor struct {
	proposals []models.SatelliteProposal
	err       error
	called    bool
}

func (f *fakeAdvisor) Propose(context.Context, policy.Policy, []advisory.CandidateSummary) ([]models.SatelliteProposal, error) {
	f.called = true
	return f.proposals, f.err
}

// fakeStore records the last persisted run.
type fakeStore struct {
	runID  string
	scores int
	items  int
	err    error
}

func (f *fakeStore) SaveRun(_ context.Context, runID, _ string, scores []models.CoinScore, allocation []models.AllocationItem) error {
	f.runID = runID
	f.scores = len(scores)
	f.items = len(allocation)
	return f.err
}

func steadySeries(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.2
	}
	return prices
}

func marketCandidate(id string, rank int) *models.Candidate {
	return &models.Candidate{
		ID:        id,
		Symbol:    id,
		Name:      id,
		MarketCap: 5e9,
		Volume24h: 5e8,
		Rank:      rank,
	}
}

func defaultOptions() Options {
	return Options{
		VsCurrency:   "usd",
		Pages:        1,
		PerPage:      250,
		HistoryDays:  30,
		FetchWorkers: 2,
		Tolerance:    policy.Balanced,
	}
}

func TestRun_ScoresFetchedUniverse(t *testing.T) {
	market := &fakeMarket{
		universe: []*models.Candidate{
			marketCandidate("solana", 5),
			marketCandidate("chainlink", 14),
			marketCandidate("polkadot", 20),
		},
	}
	runner := NewRunner(market, nil, nil, nil, config.Default())

	result, err := runner.Run(context.Background(), defaultOptions())

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 0, result.Dropped)
	assert.Len(t, result.Scores, 3)
	assert.Nil(t, result.Plan)

	for i := 1; i < len(result.Scores); i++ {
		assert.GreaterOrEqual(t, result.Scores[i-1].TotalScore, result.Scores[i].TotalScore)
	}
}

func TestRun_SingleHistoryFailureDropsOnlyThatCandidate(t *testing.T) {
	market := &fakeMarket{
		universe: []*models.Candidate{
			marketCandidate("solana", 5),
			marketCandidate("broken", 9),
			marketCandidate("chainlink", 14),
		},
		failIDs: map[string]bool{"broken": true},
	}
	runner := NewRunner(market, nil, nil, nil, config.Default())

	result, err := runner.Run(context.Background(), defaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Dropped)
	for _, s := range result.Scores {
		assert.NotEqual(t, "broken", s.CoinID)
	}
}

func TestRun_ShortHistoryDropped(t *testing.T) {
	market := &fakeMarket{
		universe: []*models.Candidate{
			marketCandidate("solana", 5),
			marketCandidate("newcoin", 80),
		},
		histories: map[string][]float64{
			"newcoin": steadySeries(models.MinHistoryPoints - 5),
		},
	}
	runner := NewRunner(market, nil, nil, nil, config.Default())

	result, err := runner.Run(context.Background(), defaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Dropped)
}

func TestRun_EmptyUniverseFails(t *testing.T) {
	market := &fakeMarket{failListAt: 1}
	runner := NewRunner(market, nil, nil, nil, config.Default())

	_, err := runner.Run(context.Background(), defaultOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list markets")
}

func TestRun_PartialUniverseTolerated(t *testing.T) {
	universe := make([]*models.Candidate, 0, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		universe = append(universe, marketCandidate(id, i+1))
	}
	market := &fakeMarket{universe: universe, failListAt: 2}
	runner := NewRunner(market, nil, nil, nil, config.Default())

	opts := defaultOptions()
	opts.Pages = 2
	opts.PerPage = 2

	result, err := runner.Run(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
}

func TestRun_BuildsPlanWithFallback(t *testing.T) {
	market := &fakeMarket{
		universe: []*models.Candidate{
			marketCandidate("solana", 5),
			marketCandidate("chainlink", 14),
		},
	}
	advisor := &fakeAdvisor{err: errors.New("advisor down")}
	runner := NewRunner(market, advisor, nil, nil, config.Default())

	opts := defaultOptions()
	opts.BuildPlan = true
	opts.MonthlyBudget = 500

	result, err := runner.Run(context.Background(), opts)

	require.NoError(t, err)
	require.NotNil(t, result.Plan)
	assert.True(t, advisor.called)
	assert.True(t, result.Plan.UsedFallback)
	assert.NotEmpty(t, result.Plan.Allocation)
	assert.NotEmpty(t, result.Plan.Checklist)

	total := 0.0
	for _, item := range result.Plan.Allocation {
		total += item.AllocationPct
		assert.Equal(t, "Monthly", item.Contribution.Cadence)
	}
	assert.InDelta(t, 1.0, total, 0.01)
}

func TestRun_AcceptedAdvisoryProposalsUsed(t *testing.T) {
	market := &fakeMarket{
		universe: []*models.Candidate{
			marketCandidate("solana", 5),
			marketCandidate("chainlink", 14),
		},
	}
	advisor := &fakeAdvisor{
		proposals: []models.SatelliteProposal{
			{CoinID: "solana", Symbol: "sol", Name: "Solana", Bucket: models.BucketLow, AllocationPct: 0.10},
		},
	}
	runner := NewRunner(market, advisor, nil, nil, config.Default())

	opts := defaultOptions()
	opts.BuildPlan = true

	result, err := runner.Run(context.Background(), opts)

	require.NoError(t, err)
	require.NotNil(t, result.Plan)
	assert.False(t, result.Plan.UsedFallback)

	found := false
	for _, item := range result.Plan.Allocation {
		if item.CoinID == "solana" && item.Role == models.RoleSatellite {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRun_PersistenceFailureDoesNotFailRun(t *testing.T) {
	market := &fakeMarket{
		universe: []*models.Candidate{marketCandidate("solana", 5)},
	}
	store := &fakeStore{err: errors.New("database unavailable")}
	runner := NewRunner(market, nil, store, nil, config.Default())

	result, err := runner.Run(context.Background(), defaultOptions())

	require.NoError(t, err)
	assert.Equal(t, result.RunID, store.runID)
	assert.Equal(t, 1, store.scores)
}

func TestRun_DeadlineKeepsFetchedSubset(t *testing.T) {
	universe := make([]*models.Candidate, 0, 20)
	for i := 0; i < 20; i++ {
		universe = append(universe, marketCandidate(fmt.Sprintf("coin-%02d", i), i+1))
	}
	market := &fakeMarket{universe: universe, delay: 30 * time.Millisecond}
	runner := NewRunner(market, nil, nil, nil, config.Default())

	opts := defaultOptions()
	opts.FetchWorkers = 1
	opts.Deadline = 100 * time.Millisecond

	result, err := runner.Run(context.Background(), opts)

	require.NoError(t, err)
	assert.Less(t, result.Fetched, 20)
	assert.Equal(t, len(result.Scores), result.Fetched)
}
