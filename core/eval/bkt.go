package eval

import "github.com/darasahq/darasa/core/courseware"

// BKTResult is one Bayesian Knowledge Tracing update. All three values are
// probabilities clamped to [0,1]; drift outside the range is a data-quality
// signal, not a failure, and Clamped flags it so callers can log it.
type BKTResult struct {
	PLnGivenActual float64 // mastery posterior given the observed response
	PLn            float64 // mastery after the learning opportunity
	PCorrect       float64 // predicted correctness of the next response
	Clamped        bool    // a probability fell outside [0,1] before normalization
}

// UpdateBKT performs the standard two-step Bayesian Knowledge Tracing update
// for one observed response, starting from the previous mastery estimate.
//
//	correct:  pLn|a = pLn·(1-pS) / (pLn·(1-pS) + (1-pLn)·pG)
//	incorrect: pLn|a = pLn·pS / (pLn·pS + (1-pLn)·(1-pG))
//	pLn' = pLn|a + (1 - pLn|a)·pT
//	pCorrect = pLn'·(1-pS) + (1-pLn')·pG
func UpdateBKT(cfg courseware.BKTConfig, pLnPrev float64, correct bool) BKTResult {
	var res BKTResult
	pLnPrev = clamp01(pLnPrev, &res.Clamped)

	var posterior float64
	if correct {
		num := pLnPrev * (1 - cfg.PS)
		den := num + (1-pLnPrev)*cfg.PG
		posterior = quotient(num, den, pLnPrev)
	} else {
		num := pLnPrev * cfg.PS
		den := num + (1-pLnPrev)*(1-cfg.PG)
		posterior = quotient(num, den, pLnPrev)
	}
	res.PLnGivenActual = clamp01(posterior, &res.Clamped)
	res.PLn = clamp01(res.PLnGivenActual+(1-res.PLnGivenActual)*cfg.PT, &res.Clamped)
	res.PCorrect = clamp01(res.PLn*(1-cfg.PS)+(1-res.PLn)*cfg.PG, &res.Clamped)
	return res
}

// quotient guards the Bayes division against a zero denominator (degenerate
// authored constants); the prior is the only sane fallback.
func quotient(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}

func clamp01(f float64, clamped *bool) float64 {
	if f < 0 {
		*clamped = true
		return 0
	}
	if f > 1 {
		*clamped = true
		return 1
	}
	return f
}
