package finance

import "math"

// IRR finds the rate r at which NPV(r) = 0.
//
// The bracket [Low, High] is scanned on a grid of ScanSteps intervals for the
// first sign change, which is then narrowed by bisection until its half-width
// is below Tolerance. Flows that never change sign, or a bracket without a sign
// change, give ErrNoSignChange. Running out of MaxIterations gives
// ErrNoConvergence.
func IRR(flows []float64, cfg SolverConfig) (float64, error) {
	if len(flows) < 2 {
		return 0, ErrInsufficientFlows
	}
	if !hasMixedSigns(flows) {
		return 0, ErrNoSignChange
	}

	lo, hi, npvLo, found := scanForSignChange(flows, cfg)
	if !found {
		return 0, ErrNoSignChange
	}
	if npvLo == 0 {
		return lo, nil
	}

	for i := 0; i < cfg.MaxIterations; i++ {
		mid := lo + (hi-lo)/2
		npvMid := NPV(mid, flows)

		if npvMid == 0 || (hi-lo)/2 < cfg.Tolerance {
			return mid, nil
		}

		if math.Signbit(npvMid) == math.Signbit(npvLo) {
			lo, npvLo = mid, npvMid
		} else {
			hi = mid
		}
	}

	return 0, ErrNoConvergence
}

// scanForSignChange walks the bracket and returns the first sub-interval whose
// end points have NPVs of opposite sign
func scanForSignChange(flows []float64, cfg SolverConfig) (lo, hi, npvLo float64, found bool) {
	step := (cfg.High - cfg.Low) / float64(cfg.ScanSteps)

	prevRate := cfg.Low
	prevNPV := NPV(prevRate, flows)
	if prevNPV == 0 {
		return prevRate, prevRate, 0, true
	}

	for i := 1; i <= cfg.ScanSteps; i++ {
		rate := cfg.Low + step*float64(i)
		value := NPV(rate, flows)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			prevRate, prevNPV = rate, value
			continue
		}
		if value == 0 {
			return rate, rate, 0, true
		}
		if !math.IsNaN(prevNPV) && !math.IsInf(prevNPV, 0) && math.Signbit(value) != math.Signbit(prevNPV) {
			return prevRate, rate, prevNPV, true
		}
		prevRate, prevNPV = rate, value
	}

	return 0, 0, 0, false
}

func hasMixedSigns(flows []float64) bool {
	var pos, neg bool
	for _, cf := range flows {
		switch {
		case cf > 0:
			pos = true
		case cf < 0:
			neg = true
		}
	}
	return pos && neg
}
