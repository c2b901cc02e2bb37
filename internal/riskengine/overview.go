package riskengine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nextier/signal-engine/internal/domain"
)

const overviewTrendWindow = 7 * 24 * time.Hour

// Overview builds the 7-day trend, current risk-level distribution, and
// top-states report surfaced at the supplemental risk-overview endpoint.
func (e *Engine) Overview(ctx context.Context) (*domain.Overview, error) {
	since := nowFunc().Add(-overviewTrendWindow)
	signals, err := e.signals.GetSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load signals for overview: %w", err)
	}

	trend := buildTrend(signals, since)
	distribution := buildDistribution(signals)
	topStates := buildTopStates(signals)

	return &domain.Overview{
		Trend:               trend,
		CurrentDistribution: distribution,
		TopStates:           topStates,
		GeneratedAt:         nowFunc(),
	}, nil
}

// nowFunc is a seam for tests; production always uses time.Now.
var nowFunc = time.Now

func buildTrend(signals []*domain.RiskSignal, since time.Time) []domain.TrendPoint {
	type acc struct {
		total float64
		count int
	}
	byDay := make(map[string]*acc)

	for _, s := range signals {
		day := s.CalculatedAt.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &acc{}
		}
		byDay[day].total += s.RiskScore
		byDay[day].count++
	}

	var days []string
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	trend := make([]domain.TrendPoint, 0, len(days))
	for _, d := range days {
		a := byDay[d]
		trend = append(trend, domain.TrendPoint{
			Date:         d,
			AverageScore: round1(a.total / float64(a.count)),
			SignalCount:  a.count,
		})
	}
	return trend
}

func buildDistribution(signals []*domain.RiskSignal) map[domain.RiskLevel]int {
	dist := map[domain.RiskLevel]int{
		domain.RiskLevelCritical: 0,
		domain.RiskLevelHigh:     0,
		domain.RiskLevelMedium:   0,
		domain.RiskLevelLow:      0,
		domain.RiskLevelMinimal:  0,
	}
	for _, s := range signals {
		dist[s.RiskLevel]++
	}
	return dist
}

func buildTopStates(signals []*domain.RiskSignal) []domain.StateSummary {
	type acc struct {
		total float64
		count int
	}
	byState := make(map[string]*acc)

	for _, s := range signals {
		if byState[s.State] == nil {
			byState[s.State] = &acc{}
		}
		byState[s.State].total += s.RiskScore
		byState[s.State].count++
	}

	summaries := make([]domain.StateSummary, 0, len(byState))
	for state, a := range byState {
		summaries = append(summaries, domain.StateSummary{
			State:        state,
			AverageScore: round1(a.total / float64(a.count)),
			SignalCount:  a.count,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].AverageScore > summaries[j].AverageScore
	})

	if len(summaries) > 10 {
		summaries = summaries[:10]
	}
	return summaries
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
