// Package prompt asks the operator for login codes and 2FA passwords.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"golang.org/x/term"
)

var ErrNoInput = errors.New("no input available for interactive prompt")

// Terminal reads answers line by line from In. When In is backed by a
// terminal, passwords are read with echo disabled.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

var _ ports.Prompter = (*Terminal)(nil)

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}
	return &Terminal{in: reader, out: out, fd: fd}
}

// Reader exposes the buffered input so other interactive loops can share it.
func (t *Terminal) Reader() *bufio.Reader {
	return t.in
}

func (t *Terminal) Code(ctx context.Context, phone string) (string, error) {
	return t.Line(ctx, fmt.Sprintf("Enter the code sent to %s: ", phone))
}

func (t *Terminal) Password(ctx context.Context, phone string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.fd < 0 {
		return t.Line(ctx, fmt.Sprintf("Enter the 2FA password for %s: ", phone))
	}

	_, _ = fmt.Fprintf(t.out, "Enter the 2FA password for %s: ", phone)
	password, err := term.ReadPassword(t.fd)
	_, _ = fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

// Line prints label and returns the next trimmed input line.
func (t *Terminal) Line(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, _ = fmt.Fprint(t.out, label)
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
