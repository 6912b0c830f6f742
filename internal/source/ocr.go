package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
)

// ErrOCRUnavailable indica que o binário de OCR não foi encontrado
var ErrOCRUnavailable = errors.New("OCR indisponível no servidor")

// OCR recognizes image text with an external tesseract-compatible binary
// invoked as "<command> <image> stdout -l <language>".
type OCR struct {
	Command  string
	Language string
	Timeout  time.Duration
}

// Decode runs the OCR binary and splits its output into lines
func (o *OCR) Decode(ctx context.Context, path string) (*Document, error) {
	log := logger.Get(ctx)

	bin, err := exec.LookPath(o.Command)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.Command, ErrOCRUnavailable)
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, path, "stdout", "-l", o.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("OCR excedeu %s: %w", o.Timeout, ctx.Err())
		}
		return nil, fmt.Errorf("OCR falhou: %v (%s): %w", err, strings.TrimSpace(stderr.String()), ErrDecode)
	}

	log.Debug().
		Str("command", o.Command).
		Dur("duration", time.Since(start)).
		Int("bytes", stdout.Len()).
		Msg("OCR concluído")

	text := strings.ReplaceAll(stdout.String(), "\r\n", "\n")
	return linesDocument(KindImage, strings.Split(text, "\n")), nil
}
