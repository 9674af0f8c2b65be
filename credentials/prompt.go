package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator for credentials that are not stored yet.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readSecret reads without echo; nil when input is not a terminal.
	readSecret func() (string, error)
}

// NewPrompter reads answers line by line from in. Pass the same
// *bufio.Reader that later consumers of in use so no input is lost.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Prompter{in: br, out: out}
}

// NewTerminalPrompter is NewPrompter with echo disabled for secrets when
// stdin is a terminal.
func NewTerminalPrompter(stdin *os.File, in *bufio.Reader, out io.Writer) *Prompter {
	p := NewPrompter(in, out)
	fd := int(stdin.Fd())
	if term.IsTerminal(fd) {
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

// IfMissing returns the stored value for key. When it is empty the operator
// is asked for it and a non-empty answer is persisted before returning.
func (p *Prompter) IfMissing(s Store, key, label string, secret bool) (string, error) {
	value, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if value != "" {
		return value, nil
	}

	fmt.Fprintf(p.out, "%s: ", label)
	if secret && p.readSecret != nil {
		value, err = p.readSecret()
	} else {
		value, err = p.readLine()
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if err := s.Set(key, value); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return value, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
