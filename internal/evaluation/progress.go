package evaluation

import "fmt"

// Progress returns the percentage of student score cells already filled in.
func Progress(ev *Evaluation) (float64, error) {
	cells := ev.scored * len(ev.Students)
	if cells == 0 {
		return 0, &ArithmeticError{Err: ErrNoCells}
	}
	return 100 * (1 - float64(ev.missing)/float64(cells)), nil
}

// FormatProgress renders a progress percentage the way the CLI prints it.
func FormatProgress(pct float64) string {
	return fmt.Sprintf("%.2f%% done", pct)
}
