package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pavelanni/paketsoal/internal/model"
)

// ErrInvalidText is returned when a run holds text that cannot appear in XML.
var ErrInvalidText = errors.New("text not representable in document XML")

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// zipModTime is stamped on every entry so identical documents produce
// identical bytes.
var zipModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Encoder produces .docx bytes.
type Encoder struct {
	Labels model.Labels
}

// New returns an Encoder rendering the given labels.
func New(l model.Labels) *Encoder {
	return &Encoder{Labels: l}
}

// Encode builds the document tree for p and serializes it.
func (e *Encoder) Encode(p model.Package) ([]byte, error) {
	return Write(Build(p, e.Labels))
}

// FileSuffix is appended to the sanitized package name.
func (e *Encoder) FileSuffix() string { return ".docx" }

// ContentType of the encoded output.
func (e *Encoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Write serializes doc as an Office Open XML package.
func Write(doc Document) ([]byte, error) {
	body, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", body},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: zipModTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalDocument(doc Document) ([]byte, error) {
	x := xmlDocument{
		XmlnsW: wordprocessingNS,
		Body: xmlBody{
			SectPr: defaultSectPr(),
		},
	}

	for i, b := range doc.Blocks {
		var p xmlParagraph
		switch b := b.(type) {
		case Heading:
			if err := validateText(b.Text); err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
			p = xmlParagraph{
				PPr:  paragraphProps("Heading"+strconv.Itoa(b.Level), b.SpacingBefore, b.SpacingAfter),
				Runs: textRuns(Run{Text: b.Text}),
			}
		case Paragraph:
			p = xmlParagraph{PPr: paragraphProps("", b.SpacingBefore, b.SpacingAfter)}
			for _, r := range b.Runs {
				if err := validateText(r.Text); err != nil {
					return nil, fmt.Errorf("block %d: %w", i, err)
				}
				p.Runs = append(p.Runs, textRuns(r)...)
			}
		default:
			return nil, fmt.Errorf("block %d: unsupported block %T", i, b)
		}
		x.Body.Paragraphs = append(x.Body.Paragraphs, p)
	}

	out, err := xml.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// validateText rejects invalid UTF-8 and code points XML 1.0 does not allow.
func validateText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 in %q", ErrInvalidText, s)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: code point %U", ErrInvalidText, r)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

func paragraphProps(style string, before, after int) *xmlParagraphProps {
	if style == "" && before == 0 && after == 0 {
		return nil
	}
	pp := &xmlParagraphProps{}
	if style != "" {
		pp.Style = &xmlVal{Val: style}
	}
	if before != 0 || after != 0 {
		pp.Spacing = &xmlSpacing{Before: before, After: after}
	}
	return pp
}

// textRuns splits a run on line breaks and tabs, since Word keeps those as
// separate elements rather than characters inside <w:t>.
func textRuns(r Run) []xmlRun {
	var props *xmlRunProps
	if r.Bold {
		props = &xmlRunProps{Bold: &struct{}{}}
	}

	text := strings.ReplaceAll(r.Text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var runs []xmlRun
	var seg strings.Builder
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		runs = append(runs, xmlRun{RPr: props, Text: &xmlText{Space: "preserve", Value: seg.String()}})
		seg.Reset()
	}
	for _, c := range text {
		switch c {
		case '\n':
			flush()
			runs = append(runs, xmlRun{RPr: props, Break: &struct{}{}})
		case '\t':
			flush()
			runs = append(runs, xmlRun{RPr: props, Tab: &struct{}{}})
		default:
			seg.WriteRune(c)
		}
	}
	flush()

	if len(runs) == 0 {
		runs = append(runs, xmlRun{RPr: props, Text: &xmlText{Space: "preserve"}})
	}
	return runs
}

type xmlDocument struct {
	XMLName xml.Name `xml:"w:document"`
	XmlnsW  string   `xml:"xmlns:w,attr"`
	Body    xmlBody  `xml:"w:body"`
}

type xmlBody struct {
	Paragraphs []xmlParagraph `xml:"w:p"`
	SectPr     xmlSectPr      `xml:"w:sectPr"`
}

type xmlParagraph struct {
	PPr  *xmlParagraphProps `xml:"w:pPr,omitempty"`
	Runs []xmlRun           `xml:"w:r"`
}

type xmlParagraphProps struct {
	Style   *xmlVal     `xml:"w:pStyle,omitempty"`
	Spacing *xmlSpacing `xml:"w:spacing,omitempty"`
}

type xmlVal struct {
	Val string `xml:"w:val,attr"`
}

type xmlSpacing struct {
	Before int `xml:"w:before,attr,omitempty"`
	After  int `xml:"w:after,attr,omitempty"`
}

type xmlRun struct {
	RPr   *xmlRunProps `xml:"w:rPr,omitempty"`
	Text  *xmlText     `xml:"w:t,omitempty"`
	Break *struct{}    `xml:"w:br,omitempty"`
	Tab   *struct{}    `xml:"w:tab,omitempty"`
}

type xmlRunProps struct {
	Bold *struct{} `xml:"w:b,omitempty"`
}

type xmlText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlSectPr struct {
	PgSz  xmlPageSize    `xml:"w:pgSz"`
	PgMar xmlPageMargins `xml:"w:pgMar"`
}

type xmlPageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type xmlPageMargins struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

// defaultSectPr is an A4 page with one-inch margins.
func defaultSectPr() xmlSectPr {
	return xmlSectPr{
		PgSz:  xmlPageSize{W: 11906, H: 16838},
		PgMar: xmlPageMargins{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 708, Footer: 708},
	}
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

// Heading styles carry w:outlineLvl so they show up in the navigation pane.
const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
	`<w:pPr><w:keepNext/><w:spacing w:after="80"/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>` +
	`</w:styles>`
