package portfolio

import (
	"fmt"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// Plan is the portfolio-generation result surfaced to callers: the
// resolved policy, the composed allocation, guardrail notes, and an
// investor checklist. Plain structured record, no wire framing.
type Plan struct {
	Policy       policy.Policy           `json:"policy"`
	Allocation   []models.AllocationItem `json:"allocation"`
	Guardrails   []string                `json:"guardrails"`
	Checklist    []string                `json:"checklist"`
	Warnings     []string                `json:"warnings,omitempty"`
	UsedFallback bool                    `json:"used_fallback"`
}

// BuildPlan assembles the final plan from a composed allocation.
func BuildPlan(pol policy.Policy, items []models.AllocationItem, warnings []string, usedFallback bool) Plan {
	guardrails := []string{
		fmt.Sprintf("Per-asset satellite cap: %.0f%%", pol.PerAssetCapPct*100),
		fmt.Sprintf("Bucket caps: Low %.0f%% / Medium %.0f%% / High %.0f%%",
			pol.BucketCaps[models.BucketLow]*100,
			pol.BucketCaps[models.BucketMedium]*100,
			pol.BucketCaps[models.BucketHigh]*100),
		fmt.Sprintf("Liquidity rank ceiling: top %d", pol.LiquidityRankCeiling),
	}
	if pol.StableBufferPct > 0 {
		guardrails = append(guardrails, fmt.Sprintf("Stable buffer held at %.0f%%", pol.StableBufferPct*100))
	}
	if usedFallback {
		guardrails = append(guardrails, "Satellites chosen by deterministic rule-based selection")
	}

	checklist := []string{
		"Review each satellite's stated reasons and risks before funding",
		"Confirm the monthly contribution amounts fit your budget",
		"Rebalance when any holding drifts materially past its target",
		"Revisit your risk tolerance after major market moves",
	}

	return Plan{
		Policy:       pol,
		Allocation:   items,
		Guardrails:   guardrails,
		Checklist:    checklist,
		Warnings:     warnings,
		UsedFallback: usedFallback,
	}
}
