// Package iocontext provides injectable I/O streams via context for testability.
package iocontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// IO holds the input/output streams for commands.
type IO struct {
	Out    io.Writer // stdout
	ErrOut io.Writer // stderr
	In     io.Reader // stdin
}

// DefaultIO returns the standard IO streams.
func DefaultIO() *IO {
	return &IO{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		In:     os.Stdin,
	}
}

type ioKey struct{}

// WithIO adds IO streams to a context.
func WithIO(ctx context.Context, io *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, io)
}

// GetIO retrieves IO streams from context, defaulting to standard streams.
func GetIO(ctx context.Context) *IO {
	if io, ok := ctx.Value(ioKey{}).(*IO); ok && io != nil {
		return io
	}
	return DefaultIO()
}

// Prompt writes label to ErrOut and reads one line from In. The trailing
// newline is stripped. A closed input with no data returns io.ErrUnexpectedEOF.
// Input is read a byte at a time so later reads of In see the following lines.
func (s *IO) Prompt(label string) (string, error) {
	if label != "" {
		_, _ = fmt.Fprint(s.ErrOut, label)
	}
	var (
		line strings.Builder
		buf  [1]byte
	)
	for {
		n, err := s.In.Read(buf[:])
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			if line.Len() == 0 {
				return "", io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(line.String(), "\r"), nil
}
