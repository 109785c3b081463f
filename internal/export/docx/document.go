// Package docx renders question packages as word-processor documents.
//
// Rendering happens in two steps. Build turns a package into a small,
// format-independent tree of headings and paragraphs; Write serializes that
// tree as an Office Open XML (.docx) package.
package docx

import (
	"strings"

	"github.com/pavelanni/paketsoal/internal/model"
)

// Spacing values are in twentieths of a point.
const (
	tagsSpacingAfter     = 200
	headingSpacingBefore = 200
	questionSpacingAfter = 100
	answerSpacingAfter   = 200
)

// Block is a top-level element of a Document.
type Block interface {
	isBlock()
}

// Run is a span of text sharing the same formatting.
type Run struct {
	Text string
	Bold bool
}

// Heading is an outline-level paragraph.
type Heading struct {
	Level         int
	Text          string
	SpacingBefore int
	SpacingAfter  int
}

// Paragraph is a body paragraph made of runs.
type Paragraph struct {
	Runs          []Run
	SpacingBefore int
	SpacingAfter  int
}

func (Heading) isBlock()   {}
func (Paragraph) isBlock() {}

// Document is an ordered list of blocks.
type Document struct {
	Blocks []Block
}

// Headings returns the texts of all headings at the given level, in order.
func (d Document) Headings(level int) []string {
	var out []string
	for _, b := range d.Blocks {
		if h, ok := b.(Heading); ok && h.Level == level {
			out = append(out, h.Text)
		}
	}
	return out
}

// Build lays out a package as a title, a tag line and one
// heading/question/answer triple per question.
func Build(p model.Package, l model.Labels) Document {
	blocks := make([]Block, 0, 2+3*len(p.Questions))
	blocks = append(blocks,
		Heading{Level: 1, Text: p.Name},
		Paragraph{
			Runs:         []Run{{Text: l.Tags + strings.Join(p.TagNames(), ", ")}},
			SpacingAfter: tagsSpacingAfter,
		},
	)

	for i, qa := range p.Questions {
		blocks = append(blocks,
			Heading{Level: 2, Text: l.Question(i + 1), SpacingBefore: headingSpacingBefore},
			Paragraph{
				Runs:         []Run{{Text: qa.Question}},
				SpacingAfter: questionSpacingAfter,
			},
			Paragraph{
				Runs: []Run{
					{Text: l.Answer, Bold: true},
					{Text: qa.Answer},
				},
				SpacingAfter: answerSpacingAfter,
			},
		)
	}

	return Document{Blocks: blocks}
}
