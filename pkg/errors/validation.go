package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateIdentifier rejects note and slot ids that would break report
// files or cache keys: empty ids, ids over 128 bytes, control characters,
// path separators and "|".
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "%s id too long (max 128 characters)", kind)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}

	for _, pattern := range []string{"/", "\\", "\x00", "|"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "%s id contains invalid characters: %q", kind, pattern)
		}
	}

	return nil
}

// ValidateNoteID validates a note identifier.
func ValidateNoteID(id string) error {
	if err := ValidateIdentifier("note", id); err != nil {
		return Wrap(ErrCodeInvalidNotes, err, "invalid note id %q", id)
	}
	return nil
}

// ValidateSlotID validates a slot identifier.
func ValidateSlotID(id string) error {
	if err := ValidateIdentifier("slot", id); err != nil {
		return Wrap(ErrCodeInvalidSlots, err, "invalid slot id %q", id)
	}
	return nil
}

// pageKeyRegex matches page keys: a page number or a spread like "2-3".
var pageKeyRegex = regexp.MustCompile(`^[0-9]{1,4}(-[0-9]{1,4})?$`)

// ValidatePageKey validates a page or spread key.
func ValidatePageKey(key string) error {
	if !pageKeyRegex.MatchString(key) {
		return New(ErrCodePageNotFound, "invalid page key %q", key)
	}
	return nil
}

// ValidatePath checks an image path referenced from a notes file. It must be
// non-empty, at most 500 bytes, free of control characters and must not
// climb out of the notes directory with "..".
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a backend URL (redis or mongodb).
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %v", schemes)
}
