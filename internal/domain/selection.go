package domain

type RankedAsset struct {
	Symbol        string  `json:"symbol"`
	CombinedScore float64 `json:"combinedScore"`
}

// RankedSelection is ordered by descending combined score.
type RankedSelection []RankedAsset

func (r RankedSelection) Symbols() []string {
	out := make([]string, 0, len(r))
	for _, a := range r {
		out = append(out, a.Symbol)
	}
	return out
}
