package model

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFileName is used when a package name sanitizes to nothing.
const DefaultFileName = "untitled"

// Tag is a label attached to a question package.
type Tag struct {
	ID   int64  `json:"tag_id"`
	Name string `json:"tag_name"`
}

// QuestionAnswer is one numbered entry of a package.
// Either field may be empty; the entry is still counted.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Package is the format-agnostic representation of one exam package.
// Encoders receive it by value and must not modify its slices.
type Package struct {
	ID        int64            `json:"package_id,omitempty"`
	Name      string           `json:"package_name"`
	Tags      []Tag            `json:"tags"`
	Questions []QuestionAnswer `json:"questions"`
}

// NewPackage builds a Package from copies of its inputs.
// Tags are unique by ID; the first occurrence wins.
func NewPackage(name string, tags []Tag, questions []QuestionAnswer) Package {
	seen := make(map[int64]bool, len(tags))
	uniq := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		uniq = append(uniq, t)
	}
	qs := make([]QuestionAnswer, len(questions))
	copy(qs, questions)
	return Package{Name: name, Tags: uniq, Questions: qs}
}

// TagNames returns the tag names in display order.
func (p Package) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// ValidationError reports an input that was repaired rather than rejected.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// SanitizeName turns a package name into a filename stem.
// Accents are folded, letters, digits, '-' and '_' are kept, and every other
// run of characters becomes a single '-'. When nothing usable remains the
// result is DefaultFileName together with a *ValidationError.
func SanitizeName(name string) (string, error) {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}

	var sb strings.Builder
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return DefaultFileName, &ValidationError{
			Field:  "package_name",
			Value:  name,
			Reason: "no usable filename characters, using " + DefaultFileName,
		}
	}
	return out, nil
}
