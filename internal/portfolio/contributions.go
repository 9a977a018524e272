package portfolio

import (
	"math"

	"github.com/coinpilot/coinpilot/internal/models"
)

const (
	contributionStep    = 5.0
	contributionMinimum = 5.0
)

// ApplyContributions splits a monthly budget across the composed
// allocation: each holding gets its share rounded to the nearest $5, with
// a $5 floor. Cadence is fixed to monthly in this pass; the field exists
// so other cadences can be introduced without reshaping the record.
func ApplyContributions(items []models.AllocationItem, monthlyBudget float64) []models.AllocationItem {
	if monthlyBudget <= 0 {
		return items
	}

	for i := range items {
		amount := math.Round(items[i].AllocationPct*monthlyBudget/contributionStep) * contributionStep
		if amount < contributionMinimum {
			amount = contributionMinimum
		}
		items[i].Contribution = models.Contribution{
			Amount:  amount,
			Cadence: "Monthly",
		}
	}
	return items
}
