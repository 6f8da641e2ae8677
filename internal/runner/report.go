// report.go renders the end-of-run summary from the collected RunResults
// and derives the process exit code.
package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/mmr-tortoise/runbox/internal/model"
)

// ExitCodeFor derives the process exit code from a set of results: the
// Code of the first unsuccessful result, or ExitSuccess when everything
// passed. Running zero environments never happens (Requested errors out
// first), but an empty slice maps to success for safety.
func ExitCodeFor(results []model.RunResult) model.ExitCode {
	for i := range results {
		if !results[i].Succeeded() {
			return results[i].Code
		}
	}
	return model.ExitSuccess
}

// WriteSummary renders the human-readable end-of-run summary: one line
// per environment with outcome and duration, then a final verdict line.
//
// Example:
//
//	  test: passed (1.204s)
//	  style: failed (0.311s) — command "staticcheck" exited with code 1
//	summary: 1 of 2 environments failed in 1.5s
func WriteSummary(w io.Writer, results []model.RunResult) {
	var failed int
	var total time.Duration
	for i := range results {
		r := &results[i]
		total += r.Duration

		line := fmt.Sprintf("  %s: %s", r.Env, r.Outcome)
		if r.Outcome != model.OutcomeSkipped {
			line += fmt.Sprintf(" (%s)", formatDuration(r.Duration))
		}
		if r.Message != "" {
			line += " — " + r.Message
		}
		fmt.Fprintln(w, line)

		if !r.Succeeded() {
			failed++
		}
	}

	if failed == 0 {
		fmt.Fprintf(w, "summary: all %d environment(s) passed in %s\n",
			len(results), formatDuration(total))
		return
	}
	fmt.Fprintf(w, "summary: %d of %d environment(s) failed in %s\n",
		failed, len(results), formatDuration(total))
}

// formatDuration rounds durations to milliseconds for stable, readable
// summary output.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
