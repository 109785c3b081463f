// Package export turns a question package into a downloadable file.
//
// The Coordinator picks one encoder per Format, derives the filename from
// the package name and returns the bytes. Delivering them (writing a file,
// answering an HTTP request) is up to the caller.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pavelanni/paketsoal/internal/export/docx"
	"github.com/pavelanni/paketsoal/internal/export/gift"
	"github.com/pavelanni/paketsoal/internal/export/pdf"
	"github.com/pavelanni/paketsoal/internal/model"
)

// Format is one of the supported export formats.
type Format string

const (
	// FormatGIFT is Moodle's plain-text quiz import format.
	FormatGIFT Format = "gift"
	// FormatDOCX is an Office Open XML word-processor document.
	FormatDOCX Format = "docx"
	// FormatPDF is a paginated PDF document.
	FormatPDF Format = "pdf"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatGIFT, FormatDOCX, FormatPDF}
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatGIFT, FormatDOCX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Encoder serializes a package into one format.
type Encoder interface {
	Encode(p model.Package) ([]byte, error)
	FileSuffix() string
	ContentType() string
}

// SerializationError reports that an encoder could not produce output.
// It is not retried: the same input fails the same way.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Result is an encoded package ready for delivery.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Coordinator dispatches exports to the encoder of each format.
// It holds no mutable state and is safe for concurrent use.
type Coordinator struct {
	gift Encoder
	docx Encoder
	pdf  Encoder
}

// NewCoordinator wires one encoder per format.
func NewCoordinator(giftEnc, docxEnc, pdfEnc Encoder) *Coordinator {
	return &Coordinator{gift: giftEnc, docx: docxEnc, pdf: pdfEnc}
}

// Default returns a Coordinator with the stock encoders rendering l.
func Default(l model.Labels) *Coordinator {
	return NewCoordinator(gift.Encoder{}, docx.New(l), pdf.New(l))
}

func (c *Coordinator) encoder(f Format) (Encoder, error) {
	switch f {
	case FormatGIFT:
		return c.gift, nil
	case FormatDOCX:
		return c.docx, nil
	case FormatPDF:
		return c.pdf, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Export encodes p as f.
func (c *Coordinator) Export(p model.Package, f Format) (Result, error) {
	enc, err := c.encoder(f)
	if err != nil {
		return Result{}, err
	}

	name, err := model.SanitizeName(p.Name)
	if err != nil {
		slog.Warn("using default file name", "package_id", p.ID, "error", err)
	}

	data, err := enc.Encode(p)
	if err != nil {
		return Result{}, fmt.Errorf("export package %q: %w", p.Name, &SerializationError{Format: f, Err: err})
	}

	res := Result{
		Data:        data,
		Filename:    name + enc.FileSuffix(),
		ContentType: enc.ContentType(),
	}
	slog.Debug("exported package",
		"package_id", p.ID,
		"format", f,
		"questions", len(p.Questions),
		"file", res.Filename,
		"size", humanize.Bytes(uint64(len(data))),
	)
	return res, nil
}

// ClipboardText renders the plain-text form the dashboard copies to the
// clipboard: one "heading: question" / "answer" block per question.
func ClipboardText(p model.Package, l model.Labels) string {
	blocks := make([]string, 0, len(p.Questions))
	for i, qa := range p.Questions {
		blocks = append(blocks, l.Question(i+1)+": "+qa.Question+"\n"+l.Answer+qa.Answer)
	}
	return strings.Join(blocks, "\n\n")
}
