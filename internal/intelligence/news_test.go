package intelligence

import (
	"math"
	"testing"
	"time"

	"solana-autotrader/internal/domain"
)

func TestAnalyze(t *testing.T) {
	a := NewNewsAnalyzer()

	tests := []struct {
		title         string
		wantSentiment float64
		wantImpact    float64
		wantKeywords  int
	}{
		{"Solana rally continues after ETF approval", 1, 0.2*2 + 0.25*2, 4},
		{"Major DEX hacked, liquidity pools drained", -1, 0.2, 1},
		{"Quiet weekend for markets", 0, 0, 0},
		{"Bullish breakout meets exploit fears", 1.0 / 3, 0.6, 3},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := a.Analyze(domain.NewsArticle{Title: tt.title})
			if math.Abs(got.Sentiment-tt.wantSentiment) > 1e-9 {
				t.Errorf("sentiment: got %f, want %f", got.Sentiment, tt.wantSentiment)
			}
			if math.Abs(got.Impact-tt.wantImpact) > 1e-9 {
				t.Errorf("impact: got %f, want %f", got.Impact, tt.wantImpact)
			}
			if len(got.Keywords) != tt.wantKeywords {
				t.Errorf("keywords: got %v, want %d", got.Keywords, tt.wantKeywords)
			}
		})
	}
}

func TestAnalyze_ImpactCapped(t *testing.T) {
	got := NewNewsAnalyzer().Analyze(domain.NewsArticle{
		Title: "Solana SOL ETF SEC Binance Coinbase rally surge breakout adoption",
	})
	if got.Impact != 1 {
		t.Errorf("expected impact capped at 1, got %f", got.Impact)
	}
}

func TestSummarize(t *testing.T) {
	a := NewNewsAnalyzer()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	if sig := a.Summarize(nil, now); sig.Articles != 0 || sig.Sentiment != 0 {
		t.Errorf("expected empty signal, got %+v", sig)
	}

	sig := a.Summarize([]domain.NewsArticle{
		{Title: "Solana rally on ETF approval", Timestamp: now.Add(-10 * time.Minute)},
		{Title: "Old news: exchange hacked", Timestamp: now.Add(-48 * time.Hour)},
	}, now)

	if sig.Articles != 2 {
		t.Errorf("expected 2 articles, got %d", sig.Articles)
	}
	// The fresh bullish article dominates the stale bearish one.
	if sig.Sentiment < 0.9 {
		t.Errorf("expected strongly positive sentiment, got %f", sig.Sentiment)
	}
	if sig.Impact <= 0 || sig.Impact > 1 {
		t.Errorf("impact out of range: %f", sig.Impact)
	}
	if len(sig.Keywords) == 0 {
		t.Error("expected keywords")
	}
}

func TestTopKeywords(t *testing.T) {
	got := topKeywords(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
