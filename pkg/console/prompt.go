package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrInvalidNumber = errors.New("invalid number")

// Prompter reads line-oriented answers from an interactive terminal.
type Prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{sc: bufio.NewScanner(in), out: out}
}

// ReadLine prints prompt and returns the next input line with surrounding
// whitespace removed. It returns io.EOF once the input is exhausted.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// ReadInt reads one line and parses it as a decimal integer.
func (p *Prompter) ReadInt(prompt string) (int, error) {
	line, err := p.ReadLine(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", line, ErrInvalidNumber)
	}
	return n, nil
}

// ReadIntInRange re-prompts until the answer is an integer in [lo, hi].
func (p *Prompter) ReadIntInRange(prompt string, lo, hi int) (int, error) {
	for {
		n, err := p.ReadInt(prompt)
		switch {
		case errors.Is(err, ErrInvalidNumber):
			fmt.Fprintln(p.out, "Invalid input. Please enter a number.")
		case err != nil:
			return 0, err
		case n < lo || n > hi:
			fmt.Fprintf(p.out, "Please enter a number between %d and %d.\n", lo, hi)
		default:
			return n, nil
		}
	}
}

// Confirm reads a y/n answer. Anything other than y or yes means no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	line, err := p.ReadLine(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *Prompter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) Println(args ...interface{}) {
	fmt.Fprintln(p.out, args...)
}
