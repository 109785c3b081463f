// Package gift writes question packages in Moodle's GIFT import format.
package gift

import (
	"strconv"
	"strings"

	"github.com/pavelanni/paketsoal/internal/model"
)

const specialChars = "{}=~#:\\"

// Encoder produces GIFT text. The zero value is ready to use.
type Encoder struct{}

// Encode implements the export encoder contract. It never fails.
func (Encoder) Encode(p model.Package) ([]byte, error) {
	return []byte(Encode(p)), nil
}

// FileSuffix is appended to the sanitized package name.
func (Encoder) FileSuffix() string { return "-gift.txt" }

// ContentType of the encoded output.
func (Encoder) ContentType() string { return "text/plain; charset=utf-8" }

// Encode renders every question as a comment line, a statement line and a
// blank separator. An empty package yields an empty string.
func Encode(p model.Package) string {
	var sb strings.Builder
	for i, qa := range p.Questions {
		sb.WriteString("// Question ")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte('\n')
		sb.WriteString(Escape(qa.Question))
		sb.WriteString(" {=")
		sb.WriteString(Escape(qa.Answer))
		sb.WriteString("}\n\n")
	}
	return sb.String()
}

// Escape backslash-escapes GIFT control characters and folds newlines into
// the two-character sequence `\n` so a field stays on one line.
// CRLF and lone CR are treated as newlines.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			sb.WriteString(`\n`)
		case strings.ContainsRune(specialChars, r):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Unescape reverses Escape. A trailing lone backslash is kept as is.
func Unescape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			if r == 'n' {
				sb.WriteByte('\n')
			} else {
				sb.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	if escaped {
		sb.WriteByte('\\')
	}
	return sb.String()
}
