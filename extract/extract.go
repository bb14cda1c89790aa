// Package extract recovers structured JSON from raw LLM response text.
//
// Model responses rarely arrive as clean JSON: they come wrapped in prose,
// markdown code fences, or with malformed trailing text. The extractor
// applies a layered strategy and returns the first candidate that parses
// as a JSON object. It is all-or-nothing per call and never retried
// internally.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoStructuredData is returned when no candidate parses as a JSON
// object. Callers wanting another attempt must re-invoke the upstream LLM
// call, not the extractor.
var ErrNoStructuredData = errors.New("extract: no structured data found in response")

// fenceRe matches a markdown code fence, optionally tagged "json", and
// captures its body.
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// JSON returns the raw bytes of the first well-formed JSON object embedded
// in text. Strategy, stopping at the first success:
//
//  1. Parse the whole trimmed text.
//  2. Parse the first fenced code block body.
//  3. Collect every fenced block body anywhere in the text as a candidate.
//  4. Brace-match from each '{', shortest balanced span first, resuming
//     after each matched span; the first fence's body is scanned before
//     the full text.
//  5. Return the first candidate that decodes as a JSON object.
func JSON(text string) ([]byte, error) {
	full := strings.TrimSpace(text)

	if obj := tryObject(full); obj != nil {
		return obj, nil
	}

	// A single fenced block often wraps the whole object. Its body is the
	// preferred brace-scan target, but never the only one: a response can
	// carry a malformed first fence and a corrected one later.
	working := full
	if m := fenceRe.FindStringSubmatch(full); len(m) > 1 {
		if obj := tryObject(m[1]); obj != nil {
			return obj, nil
		}
		working = m[1]
	}

	var candidates []string
	for _, m := range fenceRe.FindAllStringSubmatch(full, -1) {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, braceSpans(working)...)
	if working != full {
		candidates = append(candidates, braceSpans(full)...)
	}

	for _, cand := range candidates {
		if obj := tryObject(cand); obj != nil {
			return obj, nil
		}
	}

	return nil, ErrNoStructuredData
}

// Object is a convenience wrapper around JSON that decodes the recovered
// object into a generic map.
func Object(text string) (map[string]any, error) {
	raw, err := JSON(text)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, ErrNoStructuredData
	}
	return obj, nil
}

// tryObject returns the trimmed bytes if s decodes as a JSON object,
// nil otherwise. Arrays, scalars, and malformed text are rejected.
func tryObject(s string) []byte {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return []byte(s)
}

// braceSpans scans text left to right and returns every shortest balanced
// {...} span. Scanning resumes immediately after each matched span, so a
// response containing several objects yields several candidates in
// discovery order. Unbalanced trailing text simply ends the scan.
func braceSpans(text string) []string {
	var spans []string

	start := strings.IndexByte(text, '{')
	for start != -1 {
		depth := 0
		end := -1
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				end = i
				break
			}
		}
		if end == -1 {
			break
		}
		spans = append(spans, text[start:end+1])
		next := strings.IndexByte(text[end+1:], '{')
		if next == -1 {
			break
		}
		start = end + 1 + next
	}

	return spans
}
