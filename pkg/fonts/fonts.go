// Package fonts provides the fonts used for measurement and proof rendering.
//
// The Go font family (regular and bold) ships inside golang.org/x/image, so
// the faces are available without any files on disk. Parsed fonts and faces
// are cached; faces are keyed by size and weight.
package fonts

import (
	"encoding/base64"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the CSS font-family name used in SVG proofs.
const FontFamily = "Go"

// FallbackFontFamily provides fallbacks for viewers that ignore the
// embedded font.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

var (
	parseOnce sync.Once
	regular   *truetype.Font
	bold      *truetype.Font
	parseErr  error
)

func parse() error {
	parseOnce.Do(func() {
		regular, parseErr = truetype.Parse(goregular.TTF)
		if parseErr != nil {
			return
		}
		bold, parseErr = truetype.Parse(gobold.TTF)
	})
	return parseErr
}

// Font returns the parsed regular or bold font.
func Font(isBold bool) (*truetype.Font, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	if isBold {
		return bold, nil
	}
	return regular, nil
}

type faceKey struct {
	size int64 // hundredths of a point
	bold bool
}

var (
	faceMu sync.Mutex
	faces  = map[faceKey]font.Face{}
)

// Face returns a face for the given point size at 72 DPI, so one pixel
// equals one point.
func Face(size float64, isBold bool) (font.Face, error) {
	key := faceKey{size: int64(math.Round(size * 100)), bold: isBold}

	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faces[key]; ok {
		return f, nil
	}
	ft, err := Font(isBold)
	if err != nil {
		return nil, err
	}
	f := truetype.NewFace(ft, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	faces[key] = f
	return f, nil
}

// TTF returns the raw font data.
func TTF(isBold bool) []byte {
	if isBold {
		return gobold.TTF
	}
	return goregular.TTF
}

var (
	b64Once    sync.Once
	regularB64 string
	boldB64    string
)

// TTFBase64 returns the font data as a base64 string for embedding in SVG.
// The result is cached after first computation.
func TTFBase64(isBold bool) string {
	b64Once.Do(func() {
		regularB64 = base64.StdEncoding.EncodeToString(goregular.TTF)
		boldB64 = base64.StdEncoding.EncodeToString(gobold.TTF)
	})
	if isBold {
		return boldB64
	}
	return regularB64
}
