package measure

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/slotfit/pkg/config"
)

const eps = 1e-6

// advanceFunc returns the rendered width of s in points.
type advanceFunc func(s string, size float64, title bool) (float64, error)

// flowEngine lays text out column by column. The title is one spanning
// paragraph block at the top of the first Span columns; the body fills the
// columns below it and then the remaining columns, top to bottom.
type flowEngine struct {
	body    config.Typography
	title   config.Typography
	advance advanceFunc
}

type line struct {
	runes  int
	height float64
	gap    float64 // space before the line unless it starts a column
}

func (e flowEngine) measure(req Request) (Result, error) {
	res := Result{
		BodySize:    req.Profile.Body,
		TitleSize:   req.Profile.Title,
		FrameHeight: req.Geometry.Height(),
	}

	cols := max(req.Columns, 1)
	frameW := req.Geometry.Width()
	colW := (frameW - req.Gutter*float64(cols-1)) / float64(cols)
	span := max(1, min(req.Span, cols))
	spanW := colW*float64(span) + req.Gutter*float64(span-1)
	H := req.Geometry.Height()

	var titleLines, bodyLines []line
	var err error
	if req.HasTitle() {
		titleLines, err = e.lines(req.Title, spanW, req.Profile.Title, e.title, true)
		if err != nil {
			return res, err
		}
	}
	if req.HasBody() {
		bodyLines, err = e.lines(req.Body, colW, req.Profile.Body, e.body, false)
		if err != nil {
			return res, err
		}
	}

	if colW <= 0 || H <= 0 {
		res.Overflow = sumRunes(titleLines) + sumRunes(bodyLines)
		res.Hard = res.Overflow > 0
		return res, nil
	}

	// Title block.
	titleUsed, titleOverflow := 0.0, 0
	for i, l := range titleLines {
		g := 0.0
		if titleUsed > 0 {
			g = l.gap
		}
		if titleUsed+g+l.height > H+eps {
			titleOverflow = sumRunes(titleLines[i:])
			break
		}
		titleUsed += g + l.height
	}

	bodyOverflow := 0
	height := titleUsed
	if len(bodyLines) > 0 {
		if titleOverflow > 0 {
			bodyOverflow = sumRunes(bodyLines)
		} else {
			top := make([]float64, cols)
			if titleUsed > 0 {
				offset := titleUsed + e.title.SpacingAfter
				for c := 0; c < span; c++ {
					top[c] = offset
				}
			}
			var used float64
			bodyOverflow, used = flowColumns(bodyLines, top, H)
			height = math.Max(height, used)
		}
	}

	res.Overflow = titleOverflow + bodyOverflow
	res.Height = math.Min(height, H)
	res.Hard = res.Overflow > 0
	return res, nil
}

// flowColumns places lines into columns whose content starts at top[i] and
// ends at H. It returns the runes that did not fit and the deepest point
// reached in any column.
func flowColumns(lines []line, top []float64, H float64) (overflow int, deepest float64) {
	col := 0
	y := top[0]
	atTop := true
	for i := 0; i < len(lines); {
		l := lines[i]
		g := l.gap
		if atTop {
			g = 0
		}
		if y+g+l.height <= H+eps {
			y += g + l.height
			atTop = false
			deepest = math.Max(deepest, y)
			i++
			continue
		}
		col++
		if col >= len(top) {
			return sumRunes(lines[i:]), deepest
		}
		y = top[col]
		atTop = true
	}
	return 0, deepest
}

// lines splits text into paragraphs and wraps each to width.
func (e flowEngine) lines(text string, width, size float64, t config.Typography, title bool) ([]line, error) {
	lh := size * t.Leading
	var out []line
	paras := strings.Split(text, "\n")
	for pi, para := range paras {
		counts, err := wrap(para, width, func(s string) (float64, error) {
			return e.advance(s, size, title)
		})
		if err != nil {
			return nil, err
		}
		if pi < len(paras)-1 && len(counts) > 0 {
			counts[len(counts)-1]++ // the newline
		}
		for li, n := range counts {
			l := line{runes: n, height: lh}
			if li == 0 && pi > 0 {
				l.gap = t.SpacingAfter
			}
			out = append(out, l)
		}
	}
	return out, nil
}

// wrap greedily breaks one paragraph into lines no wider than maxW and
// returns the rune count of each line, separating spaces included. Words
// wider than a line are split by rune.
func wrap(para string, maxW float64, width func(string) (float64, error)) ([]int, error) {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []int{0}, nil
	}

	var counts []int
	cur := ""
	for _, w := range words {
		for {
			ww, err := width(w)
			if err != nil {
				return nil, err
			}
			if ww <= maxW+eps || utf8.RuneCountInString(w) <= 1 {
				break
			}
			if cur != "" {
				counts = append(counts, utf8.RuneCountInString(cur)+1)
				cur = ""
			}
			k, err := fitPrefix(w, maxW, width)
			if err != nil {
				return nil, err
			}
			counts = append(counts, k)
			w = string([]rune(w)[k:])
		}

		if cur == "" {
			cur = w
			continue
		}
		cand := cur + " " + w
		cw, err := width(cand)
		if err != nil {
			return nil, err
		}
		if cw <= maxW+eps {
			cur = cand
			continue
		}
		counts = append(counts, utf8.RuneCountInString(cur)+1)
		cur = w
	}
	if cur != "" {
		counts = append(counts, utf8.RuneCountInString(cur))
	}
	return counts, nil
}

// fitPrefix returns how many leading runes of w fit in maxW, at least 1.
func fitPrefix(w string, maxW float64, width func(string) (float64, error)) (int, error) {
	rs := []rune(w)
	lo, hi := 1, len(rs)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		mw, err := width(string(rs[:mid]))
		if err != nil {
			return 0, err
		}
		if mw <= maxW+eps {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

func sumRunes(ls []line) int {
	n := 0
	for _, l := range ls {
		n += l.runes
	}
	return n
}
