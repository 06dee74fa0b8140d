package oracle

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Result is the outcome of decoding an oracle response into T. A response
// that cannot be decoded is carried as a malformed result rather than an
// error: every consumer must handle the malformed case explicitly with its
// documented default so a bad model response never aborts an interview.
type Result[T any] struct {
	value T
	raw   string
	ok    bool
}

// Ok returns the decoded value and whether decoding succeeded.
func (r Result[T]) Ok() (T, bool) { return r.value, r.ok }

// Raw returns the original oracle text, preserved for logging.
func (r Result[T]) Raw() string { return r.raw }

// Malformed reports whether the response could not be decoded.
func (r Result[T]) Malformed() bool { return !r.ok }

// Parse extracts the first JSON object from raw oracle output and decodes it
// into T. Models frequently wrap JSON in markdown fences or quote numeric
// fields as strings; decoding is weakly typed to absorb both.
func Parse[T any](raw string) Result[T] {
	var value T

	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return Result[T]{raw: raw}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Result[T]{raw: raw}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &value,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return Result[T]{raw: raw}
	}

	if err := decoder.Decode(data); err != nil {
		return Result[T]{raw: raw}
	}

	return Result[T]{value: value, raw: raw, ok: true}
}

// ExtractJSON strips markdown code fences and surrounding noise from raw
// model output, returning the JSON payload inside.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	// Some models surround the object with prose. Cut to the outermost braces.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}

	return raw[start : end+1]
}
