package grid

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrEmpty indicates a grid source without any row.
	ErrEmpty = errors.New("grid: empty source")
	// ErrRagged indicates rows of different lengths.
	ErrRagged = errors.New("grid: ragged rows")
	// ErrNotSquare indicates a row count different from the row length.
	ErrNotSquare = errors.New("grid: not square")
	// ErrMalformed indicates a value that is not a non-negative integer.
	ErrMalformed = errors.New("grid: malformed value")
)

// Parse reads a grid written as whitespace separated non-negative integers,
// one row per line. Blank lines are ignored.
func Parse(r io.Reader) (*Grid, error) {
	var rows [][]Reward
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]Reward, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("line %d column %d: %q: %w", line, j+1, f, ErrMalformed)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// Load parses the grid stored at path.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Format writes g in the text form accepted by Parse.
func Format(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < g.size; i++ {
		for j := 0; j < g.size; j++ {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatInt(g.rewards[i*g.size+j], 10)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MarshalText implements encoding.TextMarshaler.
func (g *Grid) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if err := Format(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grid) UnmarshalText(text []byte) error {
	parsed, err := Parse(bytes.NewReader(text))
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
