// Package analytics derives sentiment metrics from an option-chain snapshot.
// All functions are pure: calling them twice on the same snapshot yields
// identical results.
package analytics

import (
	"sort"

	"nifty-paper-trader/internal/models"
)

// Sentiment classifies the put-call ratio.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// PCR thresholds, fixed constants.
const (
	BullishPCRThreshold = 1.2
	BearishPCRThreshold = 0.8
)

// Summary aggregates all per-snapshot analytics.
type Summary struct {
	OIPCR         float64
	VolumePCR     float64
	Sentiment     Sentiment
	MaxPainStrike int
	TotalCallOI   int64
	TotalPutOI    int64
}

// Compute returns the full analytics summary for a snapshot.
func Compute(snapshot *models.QuoteSnapshot) Summary {
	var callOI, putOI int64
	for _, q := range snapshot.Quotes {
		switch q.Right {
		case models.RightCall:
			callOI += q.OpenInterest
		case models.RightPut:
			putOI += q.OpenInterest
		}
	}

	oiPCR := OIPCR(snapshot)
	return Summary{
		OIPCR:         oiPCR,
		VolumePCR:     VolumePCR(snapshot),
		Sentiment:     Classify(oiPCR),
		MaxPainStrike: MaxPain(snapshot),
		TotalCallOI:   callOI,
		TotalPutOI:    putOI,
	}
}

// OIPCR returns the open-interest put-call ratio, or 0 when the call side
// has no open interest.
func OIPCR(snapshot *models.QuoteSnapshot) float64 {
	var callOI, putOI int64
	for _, q := range snapshot.Quotes {
		switch q.Right {
		case models.RightCall:
			callOI += q.OpenInterest
		case models.RightPut:
			putOI += q.OpenInterest
		}
	}
	if callOI == 0 {
		return 0
	}
	return float64(putOI) / float64(callOI)
}

// VolumePCR returns the traded-volume put-call ratio, or 0 when the call
// side has no volume.
func VolumePCR(snapshot *models.QuoteSnapshot) float64 {
	var callVol, putVol int64
	for _, q := range snapshot.Quotes {
		switch q.Right {
		case models.RightCall:
			callVol += q.Volume
		case models.RightPut:
			putVol += q.Volume
		}
	}
	if callVol == 0 {
		return 0
	}
	return float64(putVol) / float64(callVol)
}

// Classify maps an OI PCR value to a sentiment.
func Classify(pcr float64) Sentiment {
	switch {
	case pcr > BullishPCRThreshold:
		return SentimentBullish
	case pcr < BearishPCRThreshold:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// MaxPain returns the strike that minimizes total option-writer pain: for a
// candidate settlement strike T, in-the-money calls (strike < T) contribute
// (T-strike)*OI and in-the-money puts (strike > T) contribute (strike-T)*OI.
// Ties are broken by the first strike in ascending strike order. Returns 0
// for a snapshot with no strikes.
func MaxPain(snapshot *models.QuoteSnapshot) int {
	if len(snapshot.Strikes) == 0 {
		return 0
	}

	strikes := make([]int, len(snapshot.Strikes))
	copy(strikes, snapshot.Strikes)
	sort.Ints(strikes)

	best := 0
	bestPain := 0.0
	for i, candidate := range strikes {
		pain := painAt(snapshot, candidate)
		if i == 0 || pain < bestPain {
			best = candidate
			bestPain = pain
		}
	}
	return best
}

func painAt(snapshot *models.QuoteSnapshot, settlement int) float64 {
	var pain float64
	for _, q := range snapshot.Quotes {
		switch q.Right {
		case models.RightCall:
			if q.Strike < settlement {
				pain += float64(settlement-q.Strike) * float64(q.OpenInterest)
			}
		case models.RightPut:
			if q.Strike > settlement {
				pain += float64(q.Strike-settlement) * float64(q.OpenInterest)
			}
		}
	}
	return pain
}
