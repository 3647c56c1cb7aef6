package stats

// Welford accumulates mean and variance one sample at a time.
// See https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm
type Welford struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	M2   float64 `json:"m2"`
}

func (w *Welford) Add(x float64) {
	w.N++
	delta := x - w.Mean
	w.Mean += delta / float64(w.N)
	w.M2 += delta * (x - w.Mean)
	// Rounding can push M2 a hair below zero when all samples are equal
	if w.M2 < 0 {
		w.M2 = 0
	}
}

// Variance returns the sample variance, which is zero until we have 2 samples
func (w *Welford) Variance() float64 {
	if w.N < 2 {
		return 0
	}
	return w.M2 / float64(w.N-1)
}

func (w *Welford) Reset() {
	*w = Welford{}
}
