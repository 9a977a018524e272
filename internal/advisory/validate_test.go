package advisory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

func balancedPolicy(t *testing.T) policy.Policy {
	t.Helper()
	pol, err := policy.Resolve(policy.Balanced, policy.Overrides{})
	require.NoError(t, err)
	return pol
}

func validProposal(id string, pct float64) models.SatelliteProposal {
	return models.SatelliteProposal{
		CoinID:        id,
		Symbol:        id,
		Name:          id,
		Bucket:        models.BucketMedium,
		AllocationPct: pct,
		Reasons:       []string{"reason"},
		Risks:         []string{"risk"},
	}
}

func reasonOf(t *testing.T, err error) ReasonCode {
	t.Helper()
	var verr ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Reason
}

func TestValidate_AcceptsWellFormedResponse(t *testing.T) {
	universe := map[string]bool{"solana": true, "chainlink": true}

	err := Validate([]models.SatelliteProposal{
		validProposal("solana", 0.10),
		validProposal("chainlink", 0.08),
	}, balancedPolicy(t), universe)

	assert.NoError(t, err)
}

func TestValidate_EmptyResponse(t *testing.T) {
	err := Validate(nil, balancedPolicy(t), map[string]bool{})

	require.Error(t, err)
	assert.Equal(t, ReasonEmptyResponse, reasonOf(t, err))
}

func TestValidate_MissingCoinID(t *testing.T) {
	p := validProposal("", 0.10)

	err := Validate([]models.SatelliteProposal{p}, balancedPolicy(t), map[string]bool{})

	assert.Equal(t, ReasonMissingCoinID, reasonOf(t, err))
}

func TestValidate_UnknownBucket(t *testing.T) {
	p := validProposal("solana", 0.10)
	p.Bucket = models.Bucket("extreme")

	err := Validate([]models.SatelliteProposal{p}, balancedPolicy(t), map[string]bool{"solana": true})

	assert.Equal(t, ReasonUnknownBucket, reasonOf(t, err))
}

func TestValidate_AllocationOutOfRange(t *testing.T) {
	universe := map[string]bool{"solana": true}

	for _, pct := range []float64{0, -0.05, 1.5} {
		err := Validate([]models.SatelliteProposal{validProposal("solana", pct)},
			balancedPolicy(t), universe)

		assert.Equal(t, ReasonBadAllocation, reasonOf(t, err), "pct %.2f", pct)
	}
}

func TestValidate_PerAssetOvershootTolerated(t *testing.T) {
	// A single proposal above the per-asset cap but inside (0,1] passes
	// validation; the composer clamps it later.
	universe := map[string]bool{"solana": true}

	err := Validate([]models.SatelliteProposal{validProposal("solana", 0.90)},
		balancedPolicy(t), universe)

	assert.NoError(t, err)
}

func TestValidate_OutsideUniverse(t *testing.T) {
	err := Validate([]models.SatelliteProposal{validProposal("mystery-coin", 0.10)},
		balancedPolicy(t), map[string]bool{"solana": true})

	assert.Equal(t, ReasonOutsideUniverse, reasonOf(t, err))
}

func TestValidate_DuplicateCoin(t *testing.T) {
	universe := map[string]bool{"solana": true}

	err := Validate([]models.SatelliteProposal{
		validProposal("solana", 0.10),
		validProposal("solana", 0.05),
	}, balancedPolicy(t), universe)

	assert.Equal(t, ReasonDuplicateCoin, reasonOf(t, err))
}

func TestValidate_BudgetExceeded(t *testing.T) {
	universe := map[string]bool{"a": true, "b": true}

	err := Validate([]models.SatelliteProposal{
		validProposal("a", 0.60),
		validProposal("b", 0.50),
	}, balancedPolicy(t), universe)

	assert.Equal(t, ReasonBudgetExceeded, reasonOf(t, err))
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{
		Reason:  ReasonUnknownBucket,
		CoinID:  "solana",
		Message: `unknown bucket "extreme"`,
	}

	assert.Contains(t, err.Error(), "UNKNOWN_BUCKET")
	assert.Contains(t, err.Error(), "solana")
}
