package advisory

import (
	"fmt"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// ReasonCode classifies why an advisory response was rejected.
type ReasonCode string

const (
	ReasonEmptyResponse   ReasonCode = "EMPTY_RESPONSE"
	ReasonMissingCoinID   ReasonCode = "MISSING_COIN_ID"
	ReasonUnknownBucket   ReasonCode = "UNKNOWN_BUCKET"
	ReasonBadAllocation   ReasonCode = "ALLOCATION_OUT_OF_RANGE"
	ReasonOutsideUniverse ReasonCode = "OUTSIDE_SCREENED_UNIVERSE"
	ReasonDuplicateCoin   ReasonCode = "DUPLICATE_COIN"
	ReasonBudgetExceeded  ReasonCode = "SATELLITE_BUDGET_EXCEEDED"
)

// ValidationError carries the rejected field context. One invalid proposal
// rejects the whole response; the composer never merges a partially valid
// advisory payload.
type ValidationError struct {
	Reason  ReasonCode
	CoinID  string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s (coin=%s)", e.Reason, e.Message, e.CoinID)
}

// Validate checks every proposal for type/range validity against the
// resolved policy and the screened candidate universe.
func Validate(proposals []models.SatelliteProposal, pol policy.Policy, universe map[string]bool) error {
	if len(proposals) == 0 {
		return ValidationError{
			Reason:  ReasonEmptyResponse,
			Message: "advisor returned no satellite proposals",
		}
	}

	seen := make(map[string]bool, len(proposals))
	total := 0.0

	for _, p := range proposals {
		if p.CoinID == "" {
			return ValidationError{
				Reason:  ReasonMissingCoinID,
				Message: "proposal missing coin id",
			}
		}

		switch p.Bucket {
		case models.BucketLow, models.BucketMedium, models.BucketHigh:
		default:
			return ValidationError{
				Reason:  ReasonUnknownBucket,
				CoinID:  p.CoinID,
				Message: fmt.Sprintf("unknown bucket %q", p.Bucket),
			}
		}

		if p.AllocationPct <= 0 || p.AllocationPct > 1 {
			return ValidationError{
				Reason:  ReasonBadAllocation,
				CoinID:  p.CoinID,
				Message: fmt.Sprintf("allocation %.4f outside (0,1]", p.AllocationPct),
			}
		}

		if !universe[p.CoinID] {
			return ValidationError{
				Reason:  ReasonOutsideUniverse,
				CoinID:  p.CoinID,
				Message: "proposal names a coin outside the screened universe",
			}
		}

		if seen[p.CoinID] {
			return ValidationError{
				Reason:  ReasonDuplicateCoin,
				CoinID:  p.CoinID,
				Message: "coin proposed more than once",
			}
		}
		seen[p.CoinID] = true

		total += p.AllocationPct
	}

	// Per-asset overshoot is tolerated here because the composer clamps
	// it; a total beyond the whole portfolio is not.
	if total > 1.0 {
		return ValidationError{
			Reason:  ReasonBudgetExceeded,
			Message: fmt.Sprintf("proposed satellite total %.4f exceeds the whole portfolio", total),
		}
	}

	return nil
}
