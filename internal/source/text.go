package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// DecodeText reads a plain text file line by line
func DecodeText(ctx context.Context, path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("texto não está em UTF-8: %w", ErrDecode)
		}
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo: %v: %w", err, ErrDecode)
	}

	return linesDocument(KindText, lines), nil
}

// linesDocument keeps documents without text: they extract to zero tasks
func linesDocument(kind Kind, lines []string) *Document {
	if lines == nil {
		lines = []string{}
	}
	return &Document{Kind: kind, Lines: lines}
}
