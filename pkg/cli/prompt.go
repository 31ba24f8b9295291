package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// MultilineEnd terminates a multi-line prompt when entered on its own line.
const MultilineEnd = "."

// prompter reads user messages from a terminal, or reads all input at once
// when stdin is redirected.
type prompter struct {
	in  io.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: in, out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// Read returns the next message. An empty message means the input is
// exhausted or the user gave up.
func (p *prompter) Read(multiline bool) (string, error) {
	if !p.tty {
		data, err := io.ReadAll(p.in)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	oldState, err := term.MakeRaw(p.fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(p.fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{p.in, p.out}, ">> ")
	if width, height, err := term.GetSize(p.fd); err == nil {
		t.SetSize(width, height)
	}

	var lines []string
	for {
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if !multiline {
			return strings.TrimSpace(line), nil
		}
		if line == MultilineEnd {
			break
		}
		lines = append(lines, line)
		t.SetPrompt(".. ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (p *prompter) Hint(multiline bool) {
	if !p.tty {
		return
	}
	if multiline {
		fmt.Fprintf(p.out, "Finish a message with a line containing only %q or Ctrl-D.\n", MultilineEnd)
	}
}
