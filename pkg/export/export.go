// Package export renders planning results for the command line and files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/gridwalk/core/model"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the names accepted by Write.
var Formats = []string{FormatText, FormatJSON, FormatCSV}

// Write renders res in the named format.
func Write(w io.Writer, format string, res model.Result) error {
	switch format {
	case "", FormatText:
		return WriteText(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	}
	return fmt.Errorf("unknown format %q", format)
}

// WriteJSON writes the result to w in JSON format.
func WriteJSON(w io.Writer, res model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		model.Result
		Score     int64 `json:"score"`
		Truncated bool  `json:"truncated"`
	}{res, res.Score(), res.Truncated()})
}

// WriteCSV writes one row per step with a header line.
func WriteCSV(w io.Writer, res model.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"strategy", "step", "row", "col", "reward"}); err != nil {
		return err
	}
	for _, st := range res.Steps {
		rec := []string{
			res.Strategy,
			strconv.Itoa(st.Index),
			strconv.Itoa(st.Cell.Row),
			strconv.Itoa(st.Cell.Col),
			strconv.FormatInt(st.Reward, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText prints the walk as an aligned table followed by the total.
func WriteText(w io.Writer, res model.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "strategy: %s\n", res.Strategy)
	fmt.Fprintln(tw, "step\tcell\treward")
	for _, st := range res.Steps {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", st.Index, st.Cell, st.Reward)
	}
	fmt.Fprintf(tw, "total\t\t%d\n", res.Score())
	if res.Truncated() {
		fmt.Fprintf(tw, "stopped after %d of %d steps\n", res.Len(), res.Budget)
	}
	return tw.Flush()
}
