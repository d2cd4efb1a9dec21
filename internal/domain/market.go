package domain

import "time"

// MarketSnapshot holds the normalized fields supplied by the market
// collaborator.
type MarketSnapshot struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	WhaleBuys      int       `json:"whale_buys"`
	WhaleSells     int       `json:"whale_sells"`
	Sentiment      float64   `json:"sentiment"` // 0..1
	MEVRisk        float64   `json:"mev_risk"`  // 0..1
	VolumeSpike    float64   `json:"volume_spike"`
	Volatility     float64   `json:"volatility"`
	Volume         float64   `json:"volume"`
	ArbitrageEdge  float64   `json:"arbitrage_edge_bps"`
	PriceChangePct float64   `json:"price_change_pct"`
	Timestamp      time.Time `json:"timestamp"`
}

// Conditions projects the snapshot onto the fields stored with outcomes.
func (s MarketSnapshot) Conditions() MarketConditions {
	return MarketConditions{
		Volatility: s.Volatility,
		Volume:     s.Volume,
		Sentiment:  s.Sentiment,
		MEVRisk:    s.MEVRisk,
	}
}

// WhaleFlow returns net whale flow in [-1, 1].
func (s MarketSnapshot) WhaleFlow() float64 {
	total := s.WhaleBuys + s.WhaleSells
	if total == 0 {
		return 0
	}
	return float64(s.WhaleBuys-s.WhaleSells) / float64(total)
}

// NewsArticle is a raw article record from the news collaborator.
type NewsArticle struct {
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
