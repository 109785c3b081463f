// Package pdf renders question packages as paginated PDF documents.
//
// gofpdf is used only as a "draw text at x, y" primitive; page breaks and
// line wrapping are decided by Layout.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/pavelanni/paketsoal/internal/model"
)

const fontFamily = "Helvetica"

// documentDate is stamped as both creation and modification date so the
// same package always renders to the same bytes.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Encoder produces PDF bytes.
type Encoder struct {
	Labels model.Labels
}

// New returns an Encoder rendering the given labels.
func New(l model.Labels) *Encoder {
	return &Encoder{Labels: l}
}

// FileSuffix is appended to the sanitized package name.
func (e *Encoder) FileSuffix() string { return ".pdf" }

// ContentType of the encoded output.
func (e *Encoder) ContentType() string { return "application/pdf" }

// Paginate lays out p using real Helvetica metrics without rendering it.
func (e *Encoder) Paginate(p model.Package) Plan {
	doc, tr := newDocument()
	return Layout(p, e.Labels, measurer(doc, tr))
}

// Encode lays out p and renders the plan.
func (e *Encoder) Encode(p model.Package) ([]byte, error) {
	doc, tr := newDocument()
	doc.SetTitle(p.Name, true)

	plan := Layout(p, e.Labels, measurer(doc, tr))

	page := 0
	for _, op := range plan.Ops {
		for page < op.Page {
			doc.AddPage()
			page++
		}
		doc.SetFontSize(op.Size)
		doc.Text(op.X, op.Y, tr(op.Text))
	}
	if page == 0 {
		doc.AddPage()
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func newDocument() (*gofpdf.Fpdf, func(string) string) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(documentDate)
	doc.SetModificationDate(documentDate)
	doc.SetCatalogSort(true)
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont(fontFamily, "", BodySize)
	// Core fonts are cp1252; characters outside it render as '.'.
	return doc, doc.UnicodeTranslatorFromDescriptor("")
}

// measurer reports widths at BodySize. It must only be used while the
// document's font size is BodySize, which holds for the whole of Layout.
func measurer(doc *gofpdf.Fpdf, tr func(string) string) MeasureFunc {
	return func(s string) float64 {
		return doc.GetStringWidth(tr(s))
	}
}
