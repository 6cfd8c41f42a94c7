// Package theory supplies the closed-form queueing formulas the statistics
// recorder uses as reference values. The engine depends only on the
// Provider interface so callers can substitute their own collaborator.
package theory

import (
	"math"

	"github.com/queueworks/station-sim/pkg/models"
)

// Inputs describe the analytical model to evaluate. Rates are per
// sim-minute, service time is a mean in sim-minutes.
type Inputs struct {
	Model              models.QueueModel
	LambdaPerMinute    float64
	MeanServiceMinutes float64
	Servers            int
	Capacity           int // K, finite-capacity models
	Population         int // N, finite-population models
}

// Metrics are the steady-state quantities of the requested model.
// Unstable open systems report +Inf waits.
type Metrics struct {
	Rho          float64 // offered load per server
	Wq           float64 // mean wait in queue, minutes
	W            float64 // mean time in system, minutes
	Lq           float64 // mean queue length
	L            float64 // mean number in system
	BlockingProb float64 // loss probability, finite-capacity models only
	Stable       bool
}

// Provider evaluates a set of model inputs to reference metrics.
type Provider interface {
	Evaluate(in Inputs) Metrics
}

// Analytical is the default closed-form Provider.
type Analytical struct{}

// Evaluate dispatches on the queue model. Degenerate inputs (zero rates,
// zero servers) return zero-valued metrics rather than NaN.
func (Analytical) Evaluate(in Inputs) Metrics {
	if in.LambdaPerMinute <= 0 || in.MeanServiceMinutes <= 0 {
		return Metrics{Stable: true}
	}
	switch in.Model {
	case models.ModelMMInf:
		return evalMMInf(in)
	case models.ModelMMSK:
		return evalMMSK(in)
	case models.ModelMMSN:
		return evalMMSN(in)
	default:
		return evalMMS(in)
	}
}

// evalMMS covers M/M/1 as the s=1 special case of Erlang C.
func evalMMS(in Inputs) Metrics {
	s := in.Servers
	if s < 1 {
		s = 1
	}
	lambda := in.LambdaPerMinute
	es := in.MeanServiceMinutes
	a := lambda * es
	rho := a / float64(s)

	if rho >= 1 {
		return Metrics{
			Rho:    rho,
			Wq:     math.Inf(1),
			W:      math.Inf(1),
			Lq:     math.Inf(1),
			L:      math.Inf(1),
			Stable: false,
		}
	}

	pWait := erlangC(s, a)
	wq := pWait * es / (float64(s) * (1 - rho))
	w := wq + es
	return Metrics{
		Rho:    rho,
		Wq:     wq,
		W:      w,
		Lq:     lambda * wq,
		L:      lambda * w,
		Stable: true,
	}
}

func evalMMInf(in Inputs) Metrics {
	es := in.MeanServiceMinutes
	l := in.LambdaPerMinute * es
	return Metrics{
		Rho:    0,
		Wq:     0,
		W:      es,
		Lq:     0,
		L:      l,
		Stable: true,
	}
}

// evalMMSK evaluates the truncated M/M/s/K system: state probabilities up
// to K, blocking probability at K, and waits from the effective rate.
func evalMMSK(in Inputs) Metrics {
	s := in.Servers
	if s < 1 {
		s = 1
	}
	k := in.Capacity
	if k < s {
		k = s
	}
	lambda := in.LambdaPerMinute
	es := in.MeanServiceMinutes
	a := lambda * es
	rho := a / float64(s)

	// Unnormalized state probabilities q_n for n in [0, K].
	q := make([]float64, k+1)
	q[0] = 1
	for n := 1; n <= k; n++ {
		denom := float64(n)
		if n > s {
			denom = float64(s)
		}
		q[n] = q[n-1] * a / denom
	}
	norm := 0.0
	for _, v := range q {
		norm += v
	}

	var l float64
	for n, v := range q {
		l += float64(n) * v / norm
	}
	pBlock := q[k] / norm
	lambdaEff := lambda * (1 - pBlock)

	m := Metrics{
		Rho:          rho,
		L:            l,
		BlockingProb: pBlock,
		Stable:       true, // finite capacity is always stable
	}
	if lambdaEff > 0 {
		m.W = l / lambdaEff
		m.Wq = m.W - es
		if m.Wq < 0 {
			m.Wq = 0
		}
		m.Lq = lambdaEff * m.Wq
	}
	return m
}

// evalMMSN evaluates the finite-population (machine-repair) M/M/s//N
// system with per-caller rate lambda.
func evalMMSN(in Inputs) Metrics {
	s := in.Servers
	if s < 1 {
		s = 1
	}
	n := in.Population
	if n < 1 {
		n = 1
	}
	perCaller := in.LambdaPerMinute
	es := in.MeanServiceMinutes
	a := perCaller * es

	// Unnormalized state probabilities for 0..N customers in the node.
	q := make([]float64, n+1)
	q[0] = 1
	for i := 1; i <= n; i++ {
		denom := float64(i)
		if i > s {
			denom = float64(s)
		}
		q[i] = q[i-1] * float64(n-i+1) * a / denom
	}
	norm := 0.0
	for _, v := range q {
		norm += v
	}

	var l float64
	for i, v := range q {
		l += float64(i) * v / norm
	}
	lambdaEff := perCaller * (float64(n) - l)

	m := Metrics{
		Rho:    a * float64(n) / float64(s),
		L:      l,
		Stable: true,
	}
	if lambdaEff > 0 {
		m.W = l / lambdaEff
		m.Wq = m.W - es
		if m.Wq < 0 {
			m.Wq = 0
		}
		m.Lq = lambdaEff * m.Wq
	}
	return m
}

// erlangC returns the probability an arrival waits in an M/M/s queue with
// offered load a Erlangs, computed with the usual recurrence to avoid
// factorial overflow.
func erlangC(s int, a float64) float64 {
	if s == 1 {
		return a // reduces to rho for M/M/1
	}
	// Erlang B via recurrence, then convert to Erlang C.
	b := 1.0
	for n := 1; n <= s; n++ {
		b = a * b / (float64(n) + a*b)
	}
	rho := a / float64(s)
	return b / (1 - rho*(1-b))
}
