package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/witanlabs/marksheet/internal/schema"
)

// ExitError signals a non-zero exit code without printing an error message.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return "" }

type progressResult struct {
	Done float64 `json:"done"`
}

func jsonPrint(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDiagnostics(w io.Writer, diagnostics []schema.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}

	fmt.Fprintf(w, "Schema (%d issue", len(diagnostics))
	if len(diagnostics) != 1 {
		fmt.Fprint(w, "s")
	}
	fmt.Fprintln(w, "):")
	for _, d := range diagnostics {
		fmt.Fprintf(w, "  %-18s %-10s %s\n", d.Kind, d.Location(), d.Message)
	}
	fmt.Fprintln(w)
}
