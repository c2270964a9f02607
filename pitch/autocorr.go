package pitch

import "math"

// silenceFloor is the minimum RMS level treated as signal; below it a
// buffer is considered silence and no pitch is estimated.
const silenceFloor = 0.01

// estimateFrequency runs a mean-removed autocorrelation over the buffer
// and returns the strongest fundamental candidate along with a clarity
// value in [0,1] (the normalized autocorrelation peak). A zero frequency
// means no usable estimate.
func estimateFrequency(samples []float32, sampleRate, minFreq, maxFreq float64) (float64, float64) {
	n := len(samples)
	if n == 0 || sampleRate <= 0 {
		return 0, 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(n)

	x := make([]float64, n)
	var energy float64
	for i, s := range samples {
		v := float64(s) - mean
		x[i] = v
		energy += v * v
	}
	rms := math.Sqrt(energy / float64(n))
	if rms < silenceFloor {
		return 0, 0
	}

	minLag := int(sampleRate / maxFreq)
	maxLag := int(sampleRate / minFreq)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if minLag > maxLag {
		return 0, 0
	}

	norms := make([]float64, maxLag+1)
	for lag := 1; lag <= maxLag; lag++ {
		var corr, e0, e1 float64
		for i := 0; i < n-lag; i++ {
			corr += x[i] * x[i+lag]
			e0 += x[i] * x[i]
			e1 += x[i+lag] * x[i+lag]
		}
		if e0 == 0 || e1 == 0 {
			continue
		}
		norms[lag] = corr / math.Sqrt(e0*e1)
	}

	// The autocorrelation of any smooth signal is ~1 at tiny lags, so
	// candidate periods only start after the first zero crossing.
	searchFrom := 0
	for lag := 1; lag <= maxLag; lag++ {
		if norms[lag] < 0 {
			searchFrom = lag
			break
		}
	}
	if searchFrom == 0 {
		return 0, 0
	}
	if searchFrom < minLag {
		searchFrom = minLag
	}

	globalBest := 0.0
	for lag := searchFrom; lag <= maxLag; lag++ {
		if norms[lag] > globalBest {
			globalBest = norms[lag]
		}
	}
	if globalBest <= 0 {
		return 0, 0
	}

	// The autocorrelation also peaks at every multiple of the true
	// period, so the global maximum can sit an octave (or two) low.
	// Take the first lag whose peak comes close to the global maximum,
	// then walk onto its local summit.
	bestLag := 0
	threshold := 0.9 * globalBest
	for lag := searchFrom; lag <= maxLag; lag++ {
		if norms[lag] >= threshold {
			bestLag = lag
			break
		}
	}
	if bestLag == 0 {
		return 0, 0
	}
	for bestLag < maxLag && norms[bestLag+1] > norms[bestLag] {
		bestLag++
	}

	freq := sampleRate / float64(bestLag)
	clarity := norms[bestLag]
	if clarity < 0 {
		clarity = 0
	}
	if clarity > 1 {
		clarity = 1
	}
	return freq, clarity
}

// goertzelPower evaluates |X(f)|^2 of the N-point DFT at an arbitrary
// frequency using the Goertzel recurrence.
func goertzelPower(x []float64, sampleRate, freq float64) float64 {
	omega := 2 * math.Pi * freq / sampleRate
	coeff := 2 * math.Cos(omega)
	var s0, s1, s2 float64
	for _, v := range x {
		s0 = v + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}

// harmonicRatioN is the number of harmonics included in the ratio.
const harmonicRatioN = 8

// harmonicRatio computes the fraction of spectral energy concentrated at
// integer multiples (1..8) of the candidate fundamental versus the total
// spectral energy. A pure tone scores near 1; broadband noise or speech
// scores low. Harmonics above Nyquist are skipped.
func harmonicRatio(samples []float32, sampleRate, f0 float64) float64 {
	n := len(samples)
	if n == 0 || f0 <= 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(n)

	x := make([]float64, n)
	var energy float64
	for i, s := range samples {
		v := float64(s) - mean
		x[i] = v
		energy += v * v
	}
	if energy == 0 {
		return 0
	}

	nyquist := sampleRate / 2
	var harmonicPower float64
	for k := 1; k <= harmonicRatioN; k++ {
		f := f0 * float64(k)
		if f >= nyquist {
			break
		}
		harmonicPower += goertzelPower(x, sampleRate, f)
	}

	// Parseval: the DFT bins sum to N * time-domain energy, with each
	// real tone split across a positive and a negative frequency bin.
	// The factor 2 folds the mirror back so a pure tone scores ~1.
	ratio := 2 * harmonicPower / (float64(n) * energy)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
