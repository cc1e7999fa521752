package measure

import (
	"context"
	"math"

	"github.com/matzehuels/slotfit/pkg/config"
)

// Relaxer applies bounded local remedies before reporting overflow:
//
//  1. grow the frame height in ExpansionStep increments up to MaxExpansion;
//  2. keeping the largest expansion, shrink the body by FontStep up to
//     MaxBodyDrop;
//  3. keeping the smallest body, shrink the title by FontStep up to
//     MaxTitleDrop.
//
// It stops at the first attempt with zero overflow. Otherwise it reports the
// attempt with the least overflow (earliest on ties) and marks it hard when
// the overflow exceeds SoftTolerance characters. SoftTolerance defaults to 0,
// so any residual overflow is hard.
type Relaxer struct {
	inner Measurer
	opts  RelaxOptions
}

// RelaxOptions bound the relaxation. Lengths are in points.
type RelaxOptions struct {
	MaxExpansion  float64
	ExpansionStep float64
	FontStep      float64
	MaxBodyDrop   float64
	MaxTitleDrop  float64
	SoftTolerance int
}

// RelaxOptionsFrom converts the overset configuration.
func RelaxOptionsFrom(o config.Overset) RelaxOptions {
	return RelaxOptions{
		MaxExpansion:  o.MaxHeightExpansion(),
		ExpansionStep: o.ExpansionStep(),
		FontStep:      o.FontStep,
		MaxBodyDrop:   o.MaxBodyDrop,
		MaxTitleDrop:  o.MaxTitleDrop,
		SoftTolerance: o.SoftToleranceChars,
	}
}

// NewRelaxer wraps inner with the relaxation configured in o.
func NewRelaxer(inner Measurer, o config.Overset) *Relaxer {
	return &Relaxer{inner: inner, opts: RelaxOptionsFrom(o)}
}

// NewRelaxerWithOptions wraps inner with explicit options.
func NewRelaxerWithOptions(inner Measurer, opts RelaxOptions) *Relaxer {
	return &Relaxer{inner: inner, opts: opts}
}

// Options returns the relaxation bounds.
func (r *Relaxer) Options() RelaxOptions { return r.opts }

// Measure measures req, relaxing geometry and sizes while overflow remains.
func (r *Relaxer) Measure(ctx context.Context, req Request) (Result, error) {
	best, err := r.inner.Measure(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if best.Overflow == 0 {
		return r.finish(best), nil
	}

	try := func(q Request, expanded float64) (bool, error) {
		res, err := r.inner.Measure(ctx, q)
		if err != nil {
			return false, err
		}
		res.Expanded = expanded
		if res.Overflow < best.Overflow {
			best = res
		}
		return res.Overflow == 0, nil
	}

	// 1. Height expansion.
	cur := req
	expanded := 0.0
	if r.opts.MaxExpansion > 0 && r.opts.ExpansionStep > 0 {
		h := req.Geometry.Height()
		for e := r.opts.ExpansionStep; e <= r.opts.MaxExpansion+eps; e += r.opts.ExpansionStep {
			q := req
			q.Geometry = req.Geometry.WithHeight(h + e)
			done, err := try(q, e)
			if err != nil || done {
				return r.finish(best), err
			}
			cur, expanded = q, e
		}
	}

	if r.opts.FontStep <= 0 {
		return r.finish(best), nil
	}

	// 2. Body shrink.
	if req.HasBody() {
		base := cur.Profile.Body
		for _, d := range drops(r.opts.FontStep, r.opts.MaxBodyDrop) {
			q := cur
			q.Profile.Body = base - d
			if q.Profile.Body <= 0 {
				break
			}
			done, err := try(q, expanded)
			if err != nil || done {
				return r.finish(best), err
			}
			cur = q
		}
	}

	// 3. Title shrink.
	if req.HasTitle() {
		base := cur.Profile.Title
		for _, d := range drops(r.opts.FontStep, r.opts.MaxTitleDrop) {
			q := cur
			q.Profile.Title = base - d
			if q.Profile.Title <= 0 {
				break
			}
			done, err := try(q, expanded)
			if err != nil || done {
				return r.finish(best), err
			}
		}
	}

	return r.finish(best), nil
}

func (r *Relaxer) finish(res Result) Result {
	res.Hard = res.Overflow > r.opts.SoftTolerance
	return res
}

// drops lists step, 2*step, ... up to max, rounded to 1/100 pt.
func drops(step, maxDrop float64) []float64 {
	var out []float64
	for d := step; d <= maxDrop+eps; d += step {
		out = append(out, math.Round(d*100)/100)
	}
	return out
}
