package svcall

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram maps a template-length bin (floor(|tlen| / BinSize)) to the
// number of pairs observed with that bin, the histogram of spec.md §4.2.
type Histogram map[int]int

// NewHistogram returns an empty histogram.
func NewHistogram() Histogram { return Histogram{} }

// Add folds one absolute template length into the histogram.
func (h Histogram) Add(tlen int) {
	h[absInt(tlen)/BinSize]++
}

// Dump returns the histogram as (bin*BinSize, count) pairs sorted by bin,
// the format of the "svcaller histogram-dump" diagnostic named in
// spec.md §6 ("A histogram dump lists bin*100 → count pairs").
func (h Histogram) Dump() [][2]int {
	bins := make([]int, 0, len(h))
	for b := range h {
		bins = append(bins, b)
	}
	sort.Ints(bins)
	out := make([][2]int, len(bins))
	for i, b := range bins {
		out[i] = [2]int{b * BinSize, h[b]}
	}
	return out
}

func (h Histogram) clone() Histogram {
	out := make(Histogram, len(h))
	for b, c := range h {
		out[b] = c
	}
	return out
}

// InferInsertWindows runs the k-means-plus-noise-threshold procedure of
// spec.md §4.2 over h and returns the inward and outward insert-size
// windows, expanded by one bin on each side and scaled to base pairs (step
// 7). It is skipped entirely in the "lite" profile, where the caller
// supplies the four bounds directly (spec.md §4.2, final paragraph).
func InferInsertWindows(h Histogram) (inward, outward InsertWindow, err error) {
	work := h.clone()

	values := distinctCounts(work)
	if len(values) < 2 {
		// Fewer than two distinct bin counts means every populated bin sits
		// at the same height: a flat histogram with nothing standing above
		// background. kmeansNoiseFloor would collapse to that single value
		// and make the cutoff equal to the very count being tested, so the
		// sigma loop below would "find" a peak that is indistinguishable
		// from noise. There is no signal here to widen around.
		return InsertWindow{}, InsertWindow{}, ErrPoorLibrary
	}
	noise := kmeansNoiseFloor(values, KMeansK, KMeansDelta)
	// PopMeanStdDev (÷N), not MeanStdDev (÷N-1): the noise-floor cluster is
	// frequently a singleton when the histogram has few distinct count
	// values, and the sample variance is NaN at N=1.
	noiseMean, noiseStd := stat.PopMeanStdDev(noise, nil)

	var (
		cutoff float64
		peak1  int
		found  bool
	)
	for sigma := 0; sigma <= MaxSigma; sigma++ {
		cutoff = noiseMean + float64(sigma)*noiseStd
		peak1 = argmaxBin(work)
		if float64(work[peak1]) >= cutoff {
			found = true
			break
		}
	}
	if !found {
		return InsertWindow{}, InsertWindow{}, ErrPoorLibrary
	}

	firstMinBin, firstMaxBin := widen(work, peak1, cutoff)
	for b := firstMinBin; b <= firstMaxBin; b++ {
		delete(work, b)
	}
	peak2 := argmaxBin(work)
	secondMinBin, secondMaxBin := widen(work, peak2, cutoff)

	if firstMinBin <= secondMaxBin && secondMinBin <= firstMaxBin {
		return InsertWindow{}, InsertWindow{}, ErrNonDeconvolvableLibrary
	}

	// The population found around the global peak (first) is the
	// tentative "outward" one and the population found in the remainder
	// (second) is tentatively "inward"; swap if that guess was backwards
	// (spec.md §4.2 step 6: "the smaller-mean one is always inward").
	inMinBin, inMaxBin, outMinBin, outMaxBin := secondMinBin, secondMaxBin, firstMinBin, firstMaxBin
	if inMaxBin > outMaxBin {
		inMinBin, inMaxBin, outMinBin, outMaxBin = outMinBin, outMaxBin, inMinBin, inMaxBin
	}

	inward = InsertWindow{Min: (inMinBin - 1) * BinSize, Max: (inMaxBin + 1) * BinSize}
	outward = InsertWindow{Min: (outMinBin - 1) * BinSize, Max: (outMaxBin + 1) * BinSize}
	return inward, outward, nil
}

// distinctCounts returns the distinct bin-count values present in h, sorted
// ascending, for the k-means input of spec.md §4.2 step 1 ("Enumerate the
// distinct count values").
func distinctCounts(h Histogram) []float64 {
	seen := make(map[int]bool, len(h))
	vals := make([]float64, 0, len(h))
	for _, c := range h {
		if !seen[c] {
			seen[c] = true
			vals = append(vals, float64(c))
		}
	}
	sort.Float64s(vals)
	return vals
}

// argmaxBin returns the bin with the largest count, breaking ties toward
// the smaller bin index for determinism (map iteration order is otherwise
// unspecified).
func argmaxBin(h Histogram) int {
	best, bestCount := 0, -1
	first := true
	for b, c := range h {
		if first || c > bestCount || (c == bestCount && b < best) {
			best, bestCount, first = b, c, false
		}
	}
	return best
}

// widen walks outward from peak in both directions while the histogram
// stays at or above cutoff, returning the widest contiguous interval
// (spec.md §4.2 step 4).
func widen(h Histogram, peak int, cutoff float64) (minBin, maxBin int) {
	minBin, maxBin = peak, peak
	for float64(h[minBin-1]) >= cutoff {
		minBin--
	}
	for float64(h[maxBin+1]) >= cutoff {
		maxBin++
	}
	return minBin, maxBin
}

// kmeansNoiseFloor runs 1-D k-means (k clusters, converging when the
// largest centroid shift drops below delta) over values and returns the
// members of the cluster with the smallest mean, the background-noise
// floor of spec.md §4.2 step 1.
func kmeansNoiseFloor(values []float64, k int, delta float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	if k > len(values) {
		k = len(values)
	}

	centroids := make([]float64, k)
	for i := range centroids {
		idx := 0
		if k > 1 {
			idx = i * (len(values) - 1) / (k - 1)
		}
		centroids[i] = values[idx]
	}

	assignments := make([]int, len(values))
	for {
		for i, v := range values {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := math.Abs(v - centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			assignments[i] = best
		}

		next := make([]float64, k)
		counts := make([]int, k)
		for i, v := range values {
			c := assignments[i]
			next[c] += v
			counts[c]++
		}
		maxShift := 0.0
		for c := range next {
			if counts[c] > 0 {
				next[c] /= float64(counts[c])
			} else {
				next[c] = centroids[c]
			}
			maxShift = math.Max(maxShift, math.Abs(next[c]-centroids[c]))
		}
		centroids = next
		if maxShift < delta {
			break
		}
	}

	minIdx := floats.MinIdx(centroids)
	var noise []float64
	for i, v := range values {
		if assignments[i] == minIdx {
			noise = append(noise, v)
		}
	}
	return noise
}
