package domain

type Fundamentals struct {
	MarketCap     *float64 `json:"marketCap,omitempty"`
	TrailingPE    *float64 `json:"trailingPE,omitempty"`
	PriceToBook   *float64 `json:"priceToBook,omitempty"`
	DividendYield *float64 `json:"dividendYield,omitempty"`
}

type FundamentalsTable map[string]Fundamentals
