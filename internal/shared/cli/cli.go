// Package cli holds the small pieces the command-line tools share: flag
// parsing that allows flags after positional arguments, line prompts and
// aligned table output.
package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"predictflow/pkg/contracts/domain"
)

// ErrNoInput is returned by Prompter.Ask when stdin is exhausted
var ErrNoInput = errors.New("no more input")

// Parse parses args with fs and returns the positional arguments. Flags may
// appear before or after positionals; "--" ends flag parsing.
func Parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		// fs.Parse consumed a "--" terminator when the remainder differs
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// Prompter reads answers line by line
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter prompts on out and reads from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// PrintTable writes up to limit rows of table as aligned columns. A limit of
// zero or less prints every row.
func PrintTable(w io.Writer, table domain.Table, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Headers, "\t"))

	rows := len(table.Rows)
	if limit > 0 && rows > limit {
		rows = limit
	}
	for i := 0; i < rows; i++ {
		cells := make([]string, len(table.Headers))
		for c := range table.Headers {
			cells[c] = table.Value(i, c).String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
