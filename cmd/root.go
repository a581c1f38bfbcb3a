package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/witanlabs/marksheet/config"
	"github.com/witanlabs/marksheet/internal/evaluation"
	"github.com/witanlabs/marksheet/internal/fetch"
	"github.com/witanlabs/marksheet/internal/logging"
	"github.com/witanlabs/marksheet/internal/pdf"
	"github.com/witanlabs/marksheet/internal/report"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	total       totalValue
	pdfOutput   bool
	htmlOutput  bool
	quiet       bool
	statsOutput bool
	doneOutput  bool
	jsonOutput  bool
	strict      bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "marksheet <file-or-url>",
	Short: "Student report cards from a grading spreadsheet",
	Long: `Turn a grading spreadsheet into one report card per student, class
statistics, or a marking progress percentage.

The first sheet must have a NOM column, a rubric row labelled "Barême"
(or "Bareme", "Points") and question columns named E1, E2.a, E2.1.b...
Optional columns: CLASSE, PAP, REMARQUES and any column containing BONUS.
Students whose question cells all hold the absence marker (default ABS)
are listed as absent.

Supported formats: .xlsx, .xlsm, .csv. HTTP(S) URLs are downloaded first.

Examples:
  marksheet notes.xlsx
  marksheet notes.xlsx --total 20
  marksheet notes.xlsx --pdf
  marksheet notes.xlsx --stats --json
  marksheet notes.csv --done`,
	Version:       Version,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	RunE:          runReport,
}

func init() {
	f := rootCmd.Flags()
	f.VarP(&total, "total", "t", "Desired total marks (negative or unset keeps the rubric total)")
	f.BoolVar(&pdfOutput, "pdf", false, "Write report cards to <name>_reports.pdf")
	f.BoolVar(&htmlOutput, "html", false, "Write report cards to <name>_reports.html")
	f.BoolVarP(&quiet, "quiet", "q", false, "Only load and validate the file")
	f.BoolVarP(&statsOutput, "stats", "s", false, "Descriptive statistics of the class totals")
	f.BoolVarP(&doneOutput, "done", "d", false, "Marking progress in percent, excludes all other output")
	f.BoolVar(&jsonOutput, "json", false, "Print --stats or --done output as JSON")
	f.BoolVar(&strict, "strict", false, "Exit with status 2 when the spreadsheet has schema issues")
	rootCmd.MarkFlagsMutuallyExclusive("stats", "done")
	rootCmd.MarkFlagsMutuallyExclusive("pdf", "html")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
}

// totalValue is the --total flag. Unset means "keep the nominal total".
type totalValue struct {
	value float64
	set   bool
}

var _ pflag.Value = (*totalValue)(nil)

func (t *totalValue) String() string {
	if !t.set {
		return ""
	}
	return strconv.FormatFloat(t.value, 'f', -1, 64)
}

func (t *totalValue) Set(s string) error {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid total %q: expected a number", s)
	}
	t.value = v
	t.set = true
	return nil
}

func (t *totalValue) Type() string { return "float" }

func (t *totalValue) target() float64 {
	if !t.set {
		return -1
	}
	return t.value
}

func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("loading config: %w", err)
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return cfg, logging.New(level, os.Stderr), nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if jsonOutput && !statsOutput && !doneOutput {
		return fmt.Errorf("--json requires --stats or --done")
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	filePath, cleanup, err := resolveInput(args[0])
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	ev, diags, err := loadEvaluation(filePath, cfg, total.target(), log)
	diagOut := os.Stdout
	if jsonOutput {
		diagOut = os.Stderr
	}
	printDiagnostics(diagOut, diags)
	if err != nil {
		return err
	}

	if err := emit(inputStem(args[0]), ev, cfg, log); err != nil {
		return err
	}
	if strict && len(diags) > 0 {
		return &ExitError{Code: 2}
	}
	return nil
}

func emit(stem string, ev *evaluation.Evaluation, cfg config.Config, log zerolog.Logger) error {
	switch {
	case quiet:
		return nil
	case doneOutput:
		return printProgress(ev)
	case statsOutput:
		return printStats(ev, cfg.Style())
	}

	doc := report.NewDocument(stem, ev, cfg.Style())
	switch {
	case pdfOutput:
		out := stem + "_reports.pdf"
		if err := pdf.Write(out, doc, cfg.Style(), terminalProgress()); err != nil {
			return err
		}
		log.Debug().Str("path", out).Int("cards", len(doc.Cards)).Msg("wrote pdf")
		fmt.Printf("Output file : %s\n", out)
		return nil
	case htmlOutput:
		out := stem + "_reports.html"
		if err := writeHTML(out, doc, cfg.Style(), terminalProgress()); err != nil {
			return err
		}
		log.Debug().Str("path", out).Int("cards", len(doc.Cards)).Msg("wrote html")
		fmt.Printf("Output file : %s\n", out)
		return nil
	default:
		r := report.Renderer{Format: report.Plain, Style: cfg.Style()}
		return r.Individual(os.Stdout, doc)
	}
}

func printProgress(ev *evaluation.Evaluation) error {
	pct, err := evaluation.Progress(ev)
	if err != nil {
		return err
	}
	if jsonOutput {
		return jsonPrint(progressResult{Done: evaluation.Round(pct, 2)})
	}
	fmt.Println(evaluation.FormatProgress(pct))
	return nil
}

func printStats(ev *evaluation.Evaluation, style report.Style) error {
	if jsonOutput {
		return jsonPrint(report.Describe(ev))
	}
	r := report.Renderer{Format: report.Plain, Style: style}
	return r.Class(os.Stdout, ev)
}

// terminalProgress returns a progress bar callback when stderr is a terminal.
func terminalProgress() func(done, total int) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressBar(os.Stderr, "Rendering")
}

func writeHTML(path string, doc report.Document, style report.Style, progress func(done, total int)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	r := report.Renderer{Format: report.Markup, Style: style, Progress: progress}
	if err := r.Individual(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// inputStem is the base name of the input without extension, used for
// output file names and document titles.
func inputStem(input string) string {
	name := input
	if isURL(input) {
		name = fetch.URLPath(input)
	}
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		return "marksheet"
	}
	return stem
}

func Execute() error {
	return rootCmd.Execute()
}
