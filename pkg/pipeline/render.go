package pipeline

import (
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/proof"
)

// Render generates proof artifacts of doc in the requested formats.
func Render(doc *proof.Document, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = doc.SVG()
		case FormatPNG:
			data, err = doc.PNG(proof.DefaultScale)
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported proof format: %s", format)
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
