package source

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// DecodeDOCX extracts the raw text of a Word document, one paragraph per line
func DecodeDOCX(ctx context.Context, path string) (*Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir documento: %v: %w", err, ErrDecode)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != docxBody {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("erro ao abrir %s: %v: %w", docxBody, err, ErrDecode)
		}
		defer rc.Close()

		lines, err := paragraphs(ctx, rc)
		if err != nil {
			return nil, err
		}
		return linesDocument(KindDocument, lines), nil
	}

	return nil, fmt.Errorf("%s ausente: %w", docxBody, ErrDecode)
}

// paragraphs walks WordprocessingML and collects w:t runs per w:p
func paragraphs(ctx context.Context, r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var lines []string
	var current strings.Builder
	inText := false

	flush := func() {
		lines = append(lines, current.String())
		current.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml inválido: %v: %w", err, ErrDecode)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				flush()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	if current.Len() > 0 {
		flush()
	}
	return lines, nil
}
