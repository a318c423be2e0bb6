package cli

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/pkg/contracts/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantPos     []string
		wantOut     string
		wantVerbose bool
	}{
		{"flags first", []string{"-o", "a.csv", "in.xlsx"}, []string{"in.xlsx"}, "a.csv", false},
		{"flags after positional", []string{"in.xlsx", "-o", "a.csv", "-v"}, []string{"in.xlsx"}, "a.csv", true},
		{"interleaved", []string{"one", "-v", "two"}, []string{"one", "two"}, "", true},
		{"terminator", []string{"-v", "--", "-o"}, []string{"-o"}, "", true},
		{"nothing", nil, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			out := fs.String("o", "", "")
			verbose := fs.Bool("v", false, "")

			pos, err := Parse(fs, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantOut, *out)
			assert.Equal(t, tt.wantVerbose, *verbose)
		})
	}

	t.Run("unknown flag", func(t *testing.T) {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		_, err := Parse(fs, []string{"in.csv", "-nope"})
		assert.Error(t, err)
	})
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  first \n\n"), &out)

	answer, err := p.Ask("one? ")
	require.NoError(t, err)
	assert.Equal(t, "first", answer)

	answer, err = p.Ask("two? ")
	require.NoError(t, err)
	assert.Empty(t, answer)

	_, err = p.Ask("three? ")
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Equal(t, "one? two? three? ", out.String())
}

func TestPrintTable(t *testing.T) {
	table := domain.Table{
		Headers: []string{"load", "note"},
		Rows: [][]domain.Cell{
			{domain.NumberCell(1.5), domain.TextCell("a")},
			{domain.NumberCell(2)},
			{domain.NumberCell(3), domain.TextCell("c")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table, 2))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"load", "note"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1.5", "a"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2"}, strings.Fields(lines[2]))
}
