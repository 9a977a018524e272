package models

// AssetRoles is the injected id→role table shared by the candidate filter
// and the allocation composer. Keeping it in one place means the set of
// core and stable ids cannot drift between the two.
type AssetRoles struct {
	BTCID    string
	ETHID    string
	StableID string

	// StablecoinIDs lists every id treated as a stable holding for
	// filtering purposes, StableID included.
	StablecoinIDs map[string]bool
}

// DefaultAssetRoles returns the standard CoinGecko id mapping.
func DefaultAssetRoles() AssetRoles {
	return AssetRoles{
		BTCID:    "bitcoin",
		ETHID:    "ethereum",
		StableID: "usd-coin",
		StablecoinIDs: map[string]bool{
			"usd-coin": true,
			"tether":   true,
			"dai":      true,
			"usdd":     true,
			"true-usd": true,
			"frax":     true,
		},
	}
}

// IsCoreOrStable reports whether the id is already represented by a
// deterministic core or stable row and must not re-enter as a satellite.
func (r AssetRoles) IsCoreOrStable(id string) bool {
	if id == r.BTCID || id == r.ETHID {
		return true
	}
	return r.StablecoinIDs[id]
}
