package models

// SatelliteProposal is one proposed satellite allocation, as returned by
// the external advisory plug-in or the deterministic fallback selector.
// Both paths produce the same shape so the composer cannot tell them
// apart.
type SatelliteProposal struct {
	CoinID        string   `json:"coin_id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Bucket        Bucket   `json:"bucket"`
	AllocationPct float64  `json:"allocation_pct"`
	Reasons       []string `json:"reasons"`
	Risks         []string `json:"risks"`
}
