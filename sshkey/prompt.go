package sshkey

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	geErrors "github.com/brickster241/GitSign/utils/errors"
)

// TerminalPrompter reads a passphrase with echo disabled. Ctrl-C or EOF cancels.
// When In is not a terminal (pipes, CI) it reads one plain line per prompt.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	lines *bufio.Reader
}

// NewTerminalPrompter prompts on stderr and reads from stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func cancelled() error {
	return geErrors.E(geErrors.ErrCancelled, "password prompt", nil)
}

// Prompt implements Prompter.
func (p *TerminalPrompter) Prompt(label string) (string, error) {
	fd := int(p.In.Fd())
	fmt.Fprintf(p.Out, "%s ", label)

	if !term.IsTerminal(fd) {
		return p.readLine()
	}

	state, err := term.GetState(fd)
	if err != nil {
		return "", geErrors.E(geErrors.ErrIO, "read terminal state", err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	type result struct {
		password []byte
		err      error
	}
	done := make(chan result, 1)
	go func() {
		pw, err := term.ReadPassword(fd)
		done <- result{pw, err}
	}()

	select {
	case r := <-done:
		fmt.Fprintln(p.Out)
		if errors.Is(r.err, io.EOF) {
			return "", cancelled()
		}
		if r.err != nil {
			return "", geErrors.E(geErrors.ErrIO, "read password", r.err)
		}
		return string(r.password), nil
	case <-interrupts:
		// The reader stays blocked in ReadPassword until the next line arrives. Cancelled ends
		// the command, so the prompter is not used again in this process.
		_ = term.Restore(fd, state)
		fmt.Fprintln(p.Out)
		return "", cancelled()
	}
}

func (p *TerminalPrompter) readLine() (string, error) {
	if p.lines == nil {
		p.lines = bufio.NewReader(p.In)
	}
	line, err := p.lines.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", cancelled()
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", geErrors.E(geErrors.ErrIO, "read password", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
