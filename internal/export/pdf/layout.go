package pdf

import (
	"strings"

	"github.com/pavelanni/paketsoal/internal/model"
)

// Layout constants in millimetres on a portrait A4 page. They reproduce the
// dashboard's export exactly; changing any of them changes page counts.
const (
	LeftMargin      = 20.0
	TopStartY       = 20.0
	BottomThreshold = 250.0
	LineHeight      = 7.0
	TextWidth       = 170.0

	TitleAdvance    = 10.0
	TagsAdvance     = 15.0
	HeadingHeight   = 8.0
	QuestionSpacing = 10.0
)

// Font sizes in points.
const (
	TitleSize   = 18.0
	HeadingSize = 14.0
	BodySize    = 12.0
)

// OpKind tells what a draw op renders.
type OpKind int

const (
	OpTitle OpKind = iota
	OpTags
	OpHeading
	OpLine
)

func (k OpKind) String() string {
	switch k {
	case OpTitle:
		return "title"
	case OpTags:
		return "tags"
	case OpHeading:
		return "heading"
	case OpLine:
		return "line"
	}
	return "unknown"
}

// Op draws Text with its baseline at (X, Y) on Page (1-based).
type Op struct {
	Kind OpKind
	Page int
	X    float64
	Y    float64
	Size float64
	Text string
}

// Plan is the complete, renderer-independent layout of a package.
type Plan struct {
	Pages int
	Ops   []Op
}

// MeasureFunc returns the width of s in millimetres at BodySize.
type MeasureFunc func(s string) float64

// Cursor is the position of the next draw op. It is a value: every layout
// step returns a new cursor instead of modifying one.
type Cursor struct {
	Page int
	Y    float64
}

func startCursor() Cursor {
	return Cursor{Page: 1, Y: TopStartY}
}

// Advance moves the cursor down by dy on the same page.
func (c Cursor) Advance(dy float64) Cursor {
	return Cursor{Page: c.Page, Y: c.Y + dy}
}

// NextPage returns a cursor at the top of the following page.
func (c Cursor) NextPage() Cursor {
	return Cursor{Page: c.Page + 1, Y: TopStartY}
}

// Reserve returns c when h more millimetres fit above BottomThreshold and
// the top of the next page otherwise.
func (c Cursor) Reserve(h float64) Cursor {
	if c.Y+h > BottomThreshold {
		return c.NextPage()
	}
	return c
}

// Layout folds the package into draw ops.
//
// A question heading is only placed where it and one body line fit, so a
// heading never ends a page. Question and answer bodies may split across
// pages line by line.
func Layout(p model.Package, l model.Labels, measure MeasureFunc) Plan {
	c := startCursor()
	var ops []Op

	c, ops = place(c, ops, OpTitle, TitleSize, p.Name)
	c = c.Advance(TitleAdvance)

	c, ops = place(c, ops, OpTags, BodySize, l.Tags+strings.Join(p.TagNames(), ", "))
	c = c.Advance(TagsAdvance)

	for i, qa := range p.Questions {
		c, ops = layoutQuestion(c, ops, l.Question(i+1), qa, l.Answer, measure)
	}

	return Plan{Pages: c.Page, Ops: ops}
}

func layoutQuestion(c Cursor, ops []Op, heading string, qa model.QuestionAnswer, answerLabel string, measure MeasureFunc) (Cursor, []Op) {
	c = c.Reserve(HeadingHeight + LineHeight)
	c, ops = place(c, ops, OpHeading, HeadingSize, heading)
	c = c.Advance(HeadingHeight)

	c, ops = layoutLines(c, ops, Wrap(qa.Question, TextWidth, measure))
	c, ops = layoutLines(c, ops, Wrap(answerLabel+qa.Answer, TextWidth, measure))

	return c.Advance(QuestionSpacing), ops
}

func layoutLines(c Cursor, ops []Op, lines []string) (Cursor, []Op) {
	for _, line := range lines {
		c = c.Reserve(LineHeight)
		c, ops = place(c, ops, OpLine, BodySize, line)
		c = c.Advance(LineHeight)
	}
	return c, ops
}

func place(c Cursor, ops []Op, kind OpKind, size float64, text string) (Cursor, []Op) {
	return c, append(ops, Op{
		Kind: kind,
		Page: c.Page,
		X:    LeftMargin,
		Y:    c.Y,
		Size: size,
		Text: text,
	})
}

// Wrap breaks text into lines no wider than width. Explicit newlines start
// a new line, runs of whitespace collapse to one space, and a single word
// wider than width gets a line of its own instead of being split. Empty
// text yields one empty line.
func Wrap(text string, width float64, measure MeasureFunc) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			if line == "" {
				line = w
				continue
			}
			candidate := line + " " + w
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}
