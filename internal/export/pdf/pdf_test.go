package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pavelanni/paketsoal/internal/model"
)

// fixedWidth measures every rune as 2mm, so TextWidth fits 85 runes.
func fixedWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * 2
}

func shortPackage(n int) model.Package {
	qs := make([]model.QuestionAnswer, n)
	for i := range qs {
		qs[i] = model.QuestionAnswer{
			Question: fmt.Sprintf("Berapa %d+%d?", i, i),
			Answer:   fmt.Sprint(2 * i),
		}
	}
	return model.NewPackage("Matematika", []model.Tag{{ID: 1, Name: "SD"}}, qs)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"empty", "", 20, []string{""}},
		{"fits", "abc def", 20, []string{"abc def"}},
		{"wraps", "aaa bbb ccc", 14, []string{"aaa bbb", "ccc"}},
		{"newlines kept", "one\ntwo", 100, []string{"one", "two"}},
		{"blank line kept", "one\n\ntwo", 100, []string{"one", "", "two"}},
		{"whitespace collapsed", "a   b\tc", 100, []string{"a b c"}},
		{"oversized word alone", "xx " + strings.Repeat("y", 30) + " zz", 20,
			[]string{"xx", strings.Repeat("y", 30), "zz"}},
		{"oversized only", strings.Repeat("w", 500), 170, []string{strings.Repeat("w", 500)}},
		{"crlf", "a\r\nb", 100, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.width, fixedWidth)
			if len(got) != len(tt.want) {
				t.Fatalf("Wrap() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLayoutSingleQuestion(t *testing.T) {
	plan := Layout(shortPackage(1), model.DefaultLabels(), fixedWidth)

	if plan.Pages != 1 {
		t.Fatalf("expected 1 page, got %d", plan.Pages)
	}
	want := []Op{
		{Kind: OpTitle, Page: 1, X: 20, Y: 20, Size: TitleSize, Text: "Matematika"},
		{Kind: OpTags, Page: 1, X: 20, Y: 30, Size: BodySize, Text: "Tags: SD"},
		{Kind: OpHeading, Page: 1, X: 20, Y: 45, Size: HeadingSize, Text: "Soal #1"},
		{Kind: OpLine, Page: 1, X: 20, Y: 53, Size: BodySize, Text: "Berapa 0+0?"},
		{Kind: OpLine, Page: 1, X: 20, Y: 60, Size: BodySize, Text: "Jawaban: 0"},
	}
	if len(plan.Ops) != len(want) {
		t.Fatalf("expected %d ops, got %d: %+v", len(want), len(plan.Ops), plan.Ops)
	}
	for i := range want {
		if plan.Ops[i] != want[i] {
			t.Errorf("op %d = %+v, want %+v", i, plan.Ops[i], want[i])
		}
	}
}

func TestLayoutEmptyPackage(t *testing.T) {
	plan := Layout(model.Package{Name: "Kosong"}, model.DefaultLabels(), fixedWidth)
	if plan.Pages != 1 {
		t.Errorf("expected 1 page, got %d", plan.Pages)
	}
	if len(plan.Ops) != 2 {
		t.Errorf("expected title and tags only, got %+v", plan.Ops)
	}
	if plan.Ops[1].Text != "Tags: " {
		t.Errorf("unexpected tag line %q", plan.Ops[1].Text)
	}
}

func TestLayoutFortyQuestions(t *testing.T) {
	plan := Layout(shortPackage(40), model.DefaultLabels(), fixedWidth)

	// 6 questions fit after the title block, then 7 per page.
	if plan.Pages != 6 {
		t.Errorf("expected 6 pages, got %d", plan.Pages)
	}
	assertNoOrphanHeadings(t, plan)
	assertWithinMargins(t, plan)

	var headings int
	for _, op := range plan.Ops {
		if op.Kind == OpHeading {
			headings++
			if want := fmt.Sprintf("Soal #%d", headings); op.Text != want {
				t.Errorf("heading %q out of order, want %q", op.Text, want)
			}
		}
	}
	if headings != 40 {
		t.Errorf("expected 40 headings, got %d", headings)
	}
}

func TestLayoutLongBodySplitsAcrossPages(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("kata ", 2000))
	p := model.NewPackage("Esai", nil, []model.QuestionAnswer{
		{Question: long, Answer: "bebas"},
		{Question: "Pertanyaan berikutnya", Answer: "ya"},
	})

	plan := Layout(p, model.DefaultLabels(), fixedWidth)
	if plan.Pages < 2 {
		t.Fatalf("expected the long question to span pages, got %d", plan.Pages)
	}

	// The first heading stays on page 1 even though its body does not.
	if plan.Ops[2].Kind != OpHeading || plan.Ops[2].Page != 1 {
		t.Errorf("first heading should be on page 1: %+v", plan.Ops[2])
	}
	assertNoOrphanHeadings(t, plan)
	assertWithinMargins(t, plan)
}

func TestLayoutOrphanAvoidanceBoundary(t *testing.T) {
	// Each question: heading 8 + a line per wrapped chunk + answer + 10.
	// A 24-line question puts the second heading at 45 + 8 + 25*7 + 10 = 238,
	// where 238 + 8 + 7 > 250 forces a new page.
	q := strings.TrimSpace(strings.Repeat(strings.Repeat("x", 80)+" ", 24))
	p := model.NewPackage("Batas", nil, []model.QuestionAnswer{
		{Question: q, Answer: "a"},
		{Question: "b", Answer: "c"},
	})

	plan := Layout(p, model.DefaultLabels(), fixedWidth)
	var second Op
	for _, op := range plan.Ops {
		if op.Kind == OpHeading && op.Text == "Soal #2" {
			second = op
		}
	}
	if second.Page != 2 || second.Y != TopStartY {
		t.Errorf("second heading should start page 2 at the top, got %+v", second)
	}
	assertNoOrphanHeadings(t, plan)
}

func TestLayoutOversizedWordTerminates(t *testing.T) {
	p := model.NewPackage("Aneh", nil, []model.QuestionAnswer{
		{Question: strings.Repeat("a", 1000), Answer: strings.Repeat("b", 1000)},
	})
	plan := Layout(p, model.DefaultLabels(), fixedWidth)

	var lines int
	for _, op := range plan.Ops {
		if op.Kind == OpLine {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 unwrapped lines, got %d", lines)
	}
}

func TestCursor(t *testing.T) {
	c := startCursor()
	if c.Advance(5) != (Cursor{Page: 1, Y: 25}) {
		t.Errorf("Advance: %+v", c.Advance(5))
	}
	if c.Advance(5) == c {
		t.Error("Advance must not modify the receiver")
	}
	if got := (Cursor{Page: 1, Y: 243}).Reserve(LineHeight); got != (Cursor{Page: 1, Y: 243}) {
		t.Errorf("243+7 fits exactly, got %+v", got)
	}
	if got := (Cursor{Page: 1, Y: 244}).Reserve(LineHeight); got != (Cursor{Page: 2, Y: TopStartY}) {
		t.Errorf("244+7 overflows, got %+v", got)
	}
}

func TestEncodeConcreteScenario(t *testing.T) {
	e := New(model.DefaultLabels())
	p := model.NewPackage("Matematika",
		[]model.Tag{{ID: 1, Name: "SD"}},
		[]model.QuestionAnswer{{Question: "Berapa 2+2?", Answer: "4"}},
	)

	if plan := e.Paginate(p); plan.Pages != 1 {
		t.Errorf("expected exactly one page, got %d", plan.Pages)
	}

	data, err := e.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestEncodeFortyQuestionsPaginates(t *testing.T) {
	e := New(model.DefaultLabels())
	plan := e.Paginate(shortPackage(40))
	if plan.Pages <= 1 {
		t.Fatalf("expected more than one page, got %d", plan.Pages)
	}
	assertNoOrphanHeadings(t, plan)
	assertWithinMargins(t, plan)

	if _, err := e.Encode(shortPackage(40)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	e := New(model.DefaultLabels())
	p := shortPackage(12)

	a, err := e.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := e.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two encodings of the same package differ")
	}
}

func TestEncodeUsesFixedDates(t *testing.T) {
	out, err := New(model.DefaultLabels()).Encode(shortPackage(1))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{
		"/CreationDate (D:20000101000000)",
		"/ModDate (D:20000101000000)",
	} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestEncodeEmptyAndUnicode(t *testing.T) {
	e := New(model.DefaultLabels())
	for _, p := range []model.Package{
		{Name: ""},
		model.NewPackage("Ilmu Pengetahuan Alam", nil, []model.QuestionAnswer{
			{Question: "", Answer: ""},
			{Question: "Suhu 30°C ≈ 86°F — benar?", Answer: "Ya, kira-kira ✓"},
		}),
	} {
		data, err := e.Encode(p)
		if err != nil {
			t.Fatalf("Encode(%q): %v", p.Name, err)
		}
		if len(data) == 0 {
			t.Errorf("Encode(%q) returned no bytes", p.Name)
		}
	}
}

func assertNoOrphanHeadings(t *testing.T, plan Plan) {
	t.Helper()
	for i, op := range plan.Ops {
		if op.Kind != OpHeading {
			continue
		}
		if i+1 >= len(plan.Ops) {
			t.Fatalf("heading %q is the last op", op.Text)
		}
		next := plan.Ops[i+1]
		if next.Kind != OpLine || next.Page != op.Page {
			t.Errorf("heading %q on page %d is not followed by a line on the same page (next %+v)",
				op.Text, op.Page, next)
		}
		if op.Y+HeadingHeight+LineHeight > BottomThreshold {
			t.Errorf("heading %q at y=%v leaves no room for a line", op.Text, op.Y)
		}
	}
}

func assertWithinMargins(t *testing.T, plan Plan) {
	t.Helper()
	for _, op := range plan.Ops {
		if op.Page < 1 || op.Page > plan.Pages {
			t.Errorf("op %+v outside page range 1..%d", op, plan.Pages)
		}
		if op.Y < TopStartY {
			t.Errorf("op %+v above the top margin", op)
		}
		if op.Kind == OpLine && op.Y+LineHeight > BottomThreshold {
			t.Errorf("line %q at y=%v crosses the bottom threshold", op.Text, op.Y)
		}
	}
}
