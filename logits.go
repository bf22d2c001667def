package dagbok

import "math"

// softmax converts logits to probabilities. The per-row max is subtracted
// before exponentiating so large logits cannot overflow.
func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	out := make([]float32, len(logits))
	for i, v := range logits {
		exp := math.Exp(float64(v - maxVal))
		out[i] = float32(exp)
		sum += exp
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// argmax returns the index of the maximum value. Ties resolve to the lowest
// index in a left-to-right scan.
func argmax(values []float32) int {
	best := 0
	bestVal := float32(math.Inf(-1))
	for i, v := range values {
		if v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}
