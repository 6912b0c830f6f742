// Package source turns uploaded documents into raw text for extraction.
//
// Spreadsheets keep their row/cell structure so the pipeline can apply the
// per-cell rules; every other format is flattened to lines.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnsupportedType = errors.New("formato de arquivo não suportado")
	ErrEmptyFile       = errors.New("arquivo está vazio")
	ErrDecode          = errors.New("não foi possível ler o conteúdo do arquivo")
)

// Kind classifies a document by how its text is recovered
type Kind string

const (
	KindSpreadsheet Kind = "spreadsheet"
	KindText        Kind = "text"
	KindDocument    Kind = "document"
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
)

// Document is the decoded content of one file. Spreadsheets fill Rows,
// every other kind fills Lines; both may be empty.
type Document struct {
	Kind  Kind       `json:"kind"`
	Rows  [][]string `json:"rows,omitempty"`
	Lines []string   `json:"lines,omitempty"`
}

// IsTabular reports whether the document kept its row structure
func (d *Document) IsTabular() bool {
	return d.Kind == KindSpreadsheet
}

// LineCount returns the number of rows or lines
func (d *Document) LineCount() int {
	if d.IsTabular() {
		return len(d.Rows)
	}
	return len(d.Lines)
}

// Decoder reads one file format
type Decoder interface {
	Decode(ctx context.Context, path string) (*Document, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(ctx context.Context, path string) (*Document, error)

// Decode calls f
func (f DecoderFunc) Decode(ctx context.Context, path string) (*Document, error) {
	return f(ctx, path)
}

// Options configures the registry
type Options struct {
	OCRCommand  string
	OCRLanguage string
	OCRTimeout  time.Duration
}

type format struct {
	kind        Kind
	contentType string
	decoder     Decoder
}

// Registry dispatches files to decoders by extension
type Registry struct {
	formats map[string]format
}

// NewRegistry registers every supported format
func NewRegistry(opts Options) *Registry {
	if opts.OCRCommand == "" {
		opts.OCRCommand = "tesseract"
	}
	if opts.OCRLanguage == "" {
		opts.OCRLanguage = "eng"
	}
	if opts.OCRTimeout == 0 {
		opts.OCRTimeout = 2 * time.Minute
	}

	ocr := &OCR{Command: opts.OCRCommand, Language: opts.OCRLanguage, Timeout: opts.OCRTimeout}

	r := &Registry{formats: make(map[string]format)}
	r.Register(".xlsx", KindSpreadsheet, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", DecoderFunc(DecodeXLSX))
	r.Register(".csv", KindSpreadsheet, "text/csv", DecoderFunc(DecodeCSV))
	r.Register(".txt", KindText, "text/plain", DecoderFunc(DecodeText))
	r.Register(".docx", KindDocument, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", DecoderFunc(DecodeDOCX))
	r.Register(".pdf", KindPDF, "application/pdf", DecoderFunc(DecodePDF))
	for ext, ct := range map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".bmp":  "image/bmp",
		".tif":  "image/tiff",
		".tiff": "image/tiff",
	} {
		r.Register(ext, KindImage, ct, ocr)
	}
	return r
}

// Register adds or replaces the decoder of an extension
func (r *Registry) Register(ext string, kind Kind, contentType string, decoder Decoder) {
	r.formats[strings.ToLower(ext)] = format{kind: kind, contentType: contentType, decoder: decoder}
}

// Supported reports whether a file name has a registered extension
func (r *Registry) Supported(filename string) bool {
	_, ok := r.formats[Ext(filename)]
	return ok
}

// ContentType returns the MIME type of a file name, or "" when unsupported
func (r *Registry) ContentType(filename string) string {
	return r.formats[Ext(filename)].contentType
}

// KindOf returns the kind of a file name, or "" when unsupported
func (r *Registry) KindOf(filename string) Kind {
	return r.formats[Ext(filename)].kind
}

// Extensions lists the registered extensions
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		exts = append(exts, ext)
	}
	return exts
}

// Decode reads path with the decoder registered for its extension
func (r *Registry) Decode(ctx context.Context, path string) (*Document, error) {
	f, ok := r.formats[Ext(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedType)
	}

	doc, err := f.decoder.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	doc.Kind = f.kind
	return doc, nil
}

// Ext returns the lower-cased extension of a file name
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
