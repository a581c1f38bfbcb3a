package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/witanlabs/marksheet/config"
	"github.com/witanlabs/marksheet/internal/evaluation"
	"github.com/witanlabs/marksheet/internal/fetch"
	"github.com/witanlabs/marksheet/internal/grid"
	"github.com/witanlabs/marksheet/internal/schema"
)

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// resolveInput handles both local files and URLs.
// Returns the local file path and an optional cleanup function.
func resolveInput(input string) (string, func(), error) {
	if !isURL(input) {
		if _, err := os.Stat(input); err != nil {
			return "", nil, fmt.Errorf("cannot access file: %w", err)
		}
		return input, nil, nil
	}
	return fetch.New("marksheet/"+Version).Download(context.Background(), input)
}

// loadEvaluation opens, validates and aggregates a spreadsheet. Diagnostics
// are returned alongside a build error so callers can still show them.
func loadEvaluation(path string, cfg config.Config, target float64, log zerolog.Logger) (*evaluation.Evaluation, []schema.Diagnostic, error) {
	g, err := grid.Open(path)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("path", path).Int("rows", len(g.Rows)).Int("columns", g.Width()).Msg("loaded grid")

	diags, err := schema.Validate(g, cfg.AbsentMarker)
	if err != nil {
		return nil, nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if len(diags) > 0 {
		log.Debug().Int("issues", len(diags)).Msg("schema validation")
	}

	ev, err := evaluation.Build(g, evaluation.Options{Target: target, AbsentMarker: cfg.AbsentMarker})
	if err != nil {
		return nil, diags, err
	}
	log.Debug().
		Int("exercises", len(ev.Exercises)).
		Int("students", len(ev.Students)).
		Float64("nominal", ev.Nominal).
		Float64("target", ev.Target).
		Msg("built evaluation")
	return ev, diags, nil
}
