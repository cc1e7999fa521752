package io

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/matzehuels/slotfit/pkg/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names accepted by [Schema].
const (
	SchemaSlots = "slots"
	SchemaNotes = "notes"
)

// Schema returns the JSON schema for the named input format.
func Schema(name string) ([]byte, error) {
	data, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no schema %q", name)
	}
	return data, nil
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every schema violation in a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: validation failed:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// Validate checks data against the named schema. Violations are returned as
// a [ValidationError] wrapped with code, so callers can both test the code
// and list the fields.
func Validate(name string, data []byte, code errors.Code) error {
	schema, err := Schema(name)
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.Wrap(code, err, "invalid %s JSON", name)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return errors.Wrap(code, ve, "%s do not match the expected format", name)
}
