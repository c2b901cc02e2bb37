package riskengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/nextier/signal-engine/internal/domain"
)

// SurgeDetector flags a (state, LGA) pair whose risk score jumped sharply,
// in relative terms, since the last signal scored for that location. It
// keeps an in-process cache of the last-seen score per location so repeated
// surges in a single process don't require a database round trip, falling
// back to the signal repository's location history on a cold cache (process
// restart).
type SurgeDetector struct {
	mu        sync.Mutex
	lastScore map[string]float64
	threshold float64
}

// NewSurgeDetector builds a detector that flags a surge when a new score
// represents more than threshold percent relative increase over the
// previous one for the same location ((current-previous)/previous*100).
func NewSurgeDetector(threshold float64) *SurgeDetector {
	return &SurgeDetector{
		lastScore: make(map[string]float64),
		threshold: threshold,
	}
}

func locationKey(state, lga string) string {
	return fmt.Sprintf("%s|%s", state, lga)
}

// Check reports whether newScore represents a surge for (state, lga) and
// records newScore as the location's latest score regardless of outcome.
// When the in-process cache has no entry yet, it consults repo for the
// most recent previously stored signal at that location before deciding.
// pctIncrease is (newScore-previous)/previous*100, 0 when there was no
// prior score to compare against or the previous score was 0.
func (d *SurgeDetector) Check(ctx context.Context, repo domain.RiskSignalRepository, state, lga string, newScore float64) (isSurge bool, pctIncrease float64, err error) {
	key := locationKey(state, lga)

	d.mu.Lock()
	previous, known := d.lastScore[key]
	d.mu.Unlock()

	if !known {
		previous, known, err = d.coldLookup(ctx, repo, state, lga)
		if err != nil {
			return false, 0, err
		}
	}

	d.mu.Lock()
	d.lastScore[key] = newScore
	d.mu.Unlock()

	if !known || previous == 0 {
		return false, 0, nil
	}

	pctIncrease = (newScore - previous) / previous * 100
	return pctIncrease > d.threshold, pctIncrease, nil
}

func (d *SurgeDetector) coldLookup(ctx context.Context, repo domain.RiskSignalRepository, state, lga string) (float64, bool, error) {
	signals, err := repo.GetByStateLGA(ctx, state, lga, 1)
	if err != nil {
		return 0, false, fmt.Errorf("surge cold lookup: %w", err)
	}
	if len(signals) == 0 {
		return 0, false, nil
	}
	return signals[0].RiskScore, true, nil
}
