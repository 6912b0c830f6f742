package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DecodePDF extracts text rows from every page
func DecodePDF(ctx context.Context, path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir PDF: %v: %w", err, ErrDecode)
	}
	defer f.Close()

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("erro ao ler página %d: %v: %w", i, err, ErrDecode)
		}

		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				words = append(words, text.S)
			}
			lines = append(lines, strings.Join(words, " "))
		}
	}

	return linesDocument(KindPDF, lines), nil
}
