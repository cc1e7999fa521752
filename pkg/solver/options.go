package solver

import (
	"cmp"
	"context"
	"io"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/style"
)

// Options configure option generation and search.
type Options struct {
	// Solver holds scoring, truncation, strategy and budget settings.
	// A zero value uses config.Default().Solver.
	Solver config.Solver
	// Profiles are the size profiles to try, base profile first.
	Profiles []style.Profile
	// Logger receives measurement failures and search summaries.
	Logger *log.Logger
	// Progress, if set, is called periodically during search.
	Progress ProgressFunc
}

// OptionsFrom builds options from a resolved configuration.
func OptionsFrom(cfg config.Config) Options {
	return Options{Solver: cfg.Solver, Profiles: cfg.Profiles()}
}

func (o Options) withDefaults() Options {
	if o.Solver.Strategy == "" && o.Solver.TopK == 0 {
		o.Solver = config.Default().Solver
	}
	if o.Solver.TopK <= 0 {
		o.Solver.TopK = config.Default().Solver.TopK
	}
	if o.Solver.TitleCharsPerSpan <= 0 {
		o.Solver.TitleCharsPerSpan = config.Default().Solver.TitleCharsPerSpan
	}
	if len(o.Profiles) == 0 {
		o.Profiles = config.Default().Profiles()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// GenerateOptions measures note against the text slots of inv and returns
// its candidate placements, best first. The result is never empty: a note
// that fits nowhere gets a single missing placement whose overflow is the
// note's full length.
//
// Measurement errors do not fail generation. The affected candidate is
// marked hard with its full text as overflow and flagged measure_failed.
func GenerateOptions(ctx context.Context, m measure.Measurer, inv *page.Inventory, note page.Note, opts Options) []Placement {
	opts = opts.withDefaults()
	if !note.HasTitle() && !note.HasBody() {
		return []Placement{emptyPlacement(note)}
	}

	var slots []page.Slot
	if inv != nil {
		slots = inv.TextSlots()
	}
	g := &generator{ctx: ctx, m: m, opts: opts, note: note}

	var out []Placement
	switch {
	case note.HasTitle() && note.HasBody():
		out = append(out, g.combined(slots)...)
		if opts.Solver.Separate && len(slots) > 1 {
			out = append(out, g.separate(slots)...)
		}
	case note.HasBody():
		out = g.bodies(slots)
	default:
		out = g.titles(slots)
	}

	if len(out) == 0 {
		return []Placement{missingPlacement(note)}
	}
	sortPlacements(out)
	return out
}

type generator struct {
	ctx  context.Context
	m    measure.Measurer
	opts Options
	note page.Note
}

func (g *generator) canceled() bool { return g.ctx.Err() != nil }

// combined tries each slot with its full span and every profile.
func (g *generator) combined(slots []page.Slot) []Placement {
	var out []Placement
	for _, s := range slots {
		if g.canceled() {
			break
		}
		span := s.SpanCap()
		for _, p := range g.opts.Profiles {
			req := measure.ForSlot(g.request(measure.PartCombined, span, p), s)
			res, ok := g.measure(req)
			pl := Placement{
				NoteID:    g.note.ID,
				Kind:      KindCombined,
				BodySlot:  s.ID,
				TitleSlot: s.ID,
				Profile:   achieved(p, res),
				Span:      span,
				Overflow:  res.Overflow,
				Hard:      res.Hard,
				Flags:     measureFlags(res, ok),
				Width:     s.Width(),
				Body:      res,
			}
			pl.Score = g.score(pl, s)
			out = append(out, pl)
		}
	}
	return truncate(out, g.opts.Solver.TopK)
}

// bodies tries the body alone in each slot at each distinct body size.
func (g *generator) bodies(slots []page.Slot) []Placement {
	var out []Placement
	for _, s := range slots {
		if g.canceled() {
			break
		}
		for _, size := range bodySizes(g.opts.Profiles) {
			p := style.Profile{Body: size, Title: g.opts.Profiles[0].Title}
			req := measure.ForSlot(g.request(measure.PartBody, 1, p), s)
			res, ok := g.measure(req)
			pl := Placement{
				NoteID:   g.note.ID,
				Kind:     KindBody,
				BodySlot: s.ID,
				Profile:  achieved(p, res),
				Overflow: res.Overflow,
				Hard:     res.Hard,
				Flags:    measureFlags(res, ok),
				Width:    s.Width(),
				Body:     res,
			}
			pl.Score = g.score(pl, s)
			out = append(out, pl)
		}
	}
	return truncate(out, g.opts.Solver.TopK)
}

// titles tries the title alone in each slot, for every span the slot
// supports and each distinct title size.
func (g *generator) titles(slots []page.Slot) []Placement {
	var out []Placement
	for _, s := range slots {
		if g.canceled() {
			break
		}
		for span := 1; span <= s.SpanCap(); span++ {
			for _, size := range titleSizes(g.opts.Profiles) {
				p := style.Profile{Body: g.opts.Profiles[0].Body, Title: size}
				req := measure.ForSlot(g.request(measure.PartTitle, span, p), s)
				res, ok := g.measure(req)
				pl := Placement{
					NoteID:    g.note.ID,
					Kind:      KindTitle,
					TitleSlot: s.ID,
					Profile:   achieved(p, res),
					Span:      span,
					Overflow:  res.Overflow,
					Hard:      res.Hard,
					Flags:     measureFlags(res, ok),
					Width:     s.SpanWidth(span),
					Title:     res,
				}
				pl.Score = g.score(pl, s)
				out = append(out, pl)
			}
		}
	}
	return truncate(out, g.opts.Solver.TopK)
}

// separate pairs the best body candidates with the best title candidates
// in a different slot.
func (g *generator) separate(slots []page.Slot) []Placement {
	bodies := g.bodies(slots)
	titles := g.titles(slots)
	byID := make(map[string]page.Slot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}

	var out []Placement
	for _, b := range bodies {
		for _, t := range titles {
			if b.BodySlot == t.TitleSlot {
				continue
			}
			pl := Placement{
				NoteID:    g.note.ID,
				Kind:      KindSeparate,
				BodySlot:  b.BodySlot,
				TitleSlot: t.TitleSlot,
				Profile:   style.Profile{Body: b.Profile.Body, Title: t.Profile.Title},
				Span:      t.Span,
				Overflow:  b.Overflow + t.Overflow,
				Hard:      b.Hard || t.Hard,
				Flags:     mergeFlags(b.Flags, t.Flags),
				Width:     b.Width,
				Body:      b.Body,
				Title:     t.Title,
			}
			pl.Score = g.score(pl, byID[t.TitleSlot])
			out = append(out, pl)
		}
	}
	return truncate(out, g.opts.Solver.TopK)
}

func (g *generator) request(part measure.Part, span int, p style.Profile) measure.Request {
	return measure.Request{
		NoteID:  g.note.ID,
		Part:    part,
		Title:   g.note.Title,
		Body:    g.note.Body,
		Span:    span,
		Profile: p,
	}
}

// measure runs one measurement. A failure is logged and turned into a hard
// result covering the whole requested text.
func (g *generator) measure(req measure.Request) (measure.Result, bool) {
	res, err := g.m.Measure(g.ctx, req)
	if err == nil {
		return res, true
	}
	if g.ctx.Err() == nil {
		g.opts.Logger.Warn("measurement failed", "note", req.NoteID, "slot", req.SlotID, "part", req.Part, "error", err)
	}
	full := 0
	if req.HasTitle() {
		full += utf8.RuneCountInString(req.Title)
	}
	if req.HasBody() {
		full += utf8.RuneCountInString(req.Body)
	}
	return measure.Result{
		Overflow:  full,
		BodySize:  req.Profile.Body,
		TitleSize: req.Profile.Title,
		Hard:      true,
	}, false
}

// score is overflow, plus the hard penalty, plus a nudge toward spans
// proportional to the title length.
func (g *generator) score(pl Placement, titleSlot page.Slot) float64 {
	s := float64(pl.Overflow)
	if pl.Hard {
		s += g.opts.Solver.HardPenalty
	}
	if pl.Kind != KindBody && g.note.HasTitle() {
		ideal := IdealSpan(g.note.TitleChars(), g.opts.Solver.TitleCharsPerSpan, titleSlot.SpanCap())
		s += g.opts.Solver.SpanNudge * math.Abs(float64(pl.Span-ideal))
	}
	return s
}

// IdealSpan returns the span a title of n characters prefers: one column
// per perSpan characters, clamped to [1, limit].
func IdealSpan(n, perSpan, limit int) int {
	if perSpan <= 0 {
		return 1
	}
	ideal := (n + perSpan - 1) / perSpan
	return max(1, min(ideal, limit))
}

// sortPlacements puts every candidate without a hard failure ahead of every
// failed one, then orders by score, then wider frames first. Equal
// candidates keep generation order.
func sortPlacements(ps []Placement) {
	slices.SortStableFunc(ps, func(a, b Placement) int {
		if a.Failed() != b.Failed() {
			if a.Failed() {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.Width, a.Width)
	})
}

type placementKey struct {
	kind        Kind
	body, title string
	profile     style.Profile
	span        int
}

// truncate sorts ps, drops candidates that relaxed to the same sizes in
// the same slots, and keeps the best k.
func truncate(ps []Placement, k int) []Placement {
	sortPlacements(ps)
	seen := make(map[placementKey]bool, len(ps))
	out := ps[:0]
	for _, p := range ps {
		key := placementKey{p.Kind, p.BodySlot, p.TitleSlot, p.Profile, p.Span}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if len(out) == k {
			break
		}
	}
	return out
}

func achieved(p style.Profile, res measure.Result) style.Profile {
	if res.BodySize > 0 {
		p.Body = res.BodySize
	}
	if res.TitleSize > 0 {
		p.Title = res.TitleSize
	}
	return p
}

func measureFlags(res measure.Result, ok bool) []string {
	flags := overflowFlags(res.Overflow, res.Hard)
	if !ok {
		flags = append(flags, page.WarnMeasureFailed)
	}
	return flags
}

func mergeFlags(a, b []string) []string {
	out := slices.Clone(a)
	for _, f := range b {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if slices.Contains(out, page.WarnOversetHard) {
		out = slices.DeleteFunc(out, func(f string) bool { return f == page.WarnOverset })
	}
	return out
}

func bodySizes(ps []style.Profile) []float64 {
	var out []float64
	for _, p := range ps {
		if !slices.Contains(out, p.Body) {
			out = append(out, p.Body)
		}
	}
	return out
}

func titleSizes(ps []style.Profile) []float64 {
	var out []float64
	for _, p := range ps {
		if !slices.Contains(out, p.Title) {
			out = append(out, p.Title)
		}
	}
	return out
}
