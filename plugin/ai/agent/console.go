package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/hrygo/callparrot/plugin/ai/contact"
)

// LineReader reads one line of user input.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// ScanReader reads lines from an io.Reader on a background goroutine so a
// pending read can be abandoned when ctx ends.
type ScanReader struct {
	lines chan string
	err   error
}

// NewScanReader starts reading r.
func NewScanReader(r io.Reader) *ScanReader {
	s := &ScanReader{lines: make(chan string)}
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		s.err = scanner.Err()
		close(s.lines)
	}()
	return s
}

// ReadLine returns the next line, io.EOF at end of input, or ctx's error.
func (s *ScanReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			if s.err != nil {
				return "", s.err
			}
			return "", io.EOF
		}
		return line, nil
	}
}

var fieldPrompts = map[contact.Field]string{
	contact.FieldName:  "Please enter your name: ",
	contact.FieldEmail: "Please enter your email: ",
	contact.FieldPhone: "Please enter your phone number (with country code, e.g., +977 9818000000): ",
}

var retryNotices = map[contact.Field]string{
	contact.FieldName:  "Name must not be empty. Please try again.",
	contact.FieldEmail: "Invalid email format. Please try again.",
	contact.FieldPhone: "Invalid phone number format. Please try again.",
}

// LineCollector prompts on out and reads one line per answer from in.
// It shares in with the caller's REPL so answers and utterances interleave.
type LineCollector struct {
	in  LineReader
	out io.Writer
}

// NewLineCollector creates a collector reading from in and writing prompts to out.
func NewLineCollector(in LineReader, out io.Writer) *LineCollector {
	return &LineCollector{in: in, out: out}
}

// Prompt implements ContactCollector.
func (c *LineCollector) Prompt(ctx context.Context, field contact.Field, attempt int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if attempt > 0 {
		fmt.Fprintln(c.out, retryNotices[field])
	}
	fmt.Fprint(c.out, fieldPrompts[field])

	return c.in.ReadLine(ctx)
}

var (
	_ LineReader       = (*ScanReader)(nil)
	_ ContactCollector = (*LineCollector)(nil)
)
