package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInput is returned when the input ends before a valid count is read.
var ErrNoInput = errors.New("no input")

// Prompter reads item counts from line-oriented input.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Count prompts until a whole number >= min is entered.
func (p *Prompter) Count(prompt string, min int) (int, error) {
	for {
		fmt.Fprint(p.out, prompt)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, fmt.Errorf("read input: %w", err)
			}
			return 0, ErrNoInput
		}

		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a valid number.")
			continue
		}
		if n < min {
			fmt.Fprintf(p.out, "Please enter a number greater than or equal to %d.\n", min)
			continue
		}
		return n, nil
	}
}
