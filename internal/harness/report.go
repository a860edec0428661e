package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/terraprobe/internal/invariant"
)

// Summary aggregates the per-property results of one suite run.
type Summary struct {
	Total    int
	Passed   int
	Violated int
	Errored  int
	Results  []PropertyResult
}

// Summarize builds a Summary from property results.
func Summarize(results []PropertyResult) *Summary {
	s := &Summary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeViolated:
			s.Violated++
		case OutcomeErrored:
			s.Errored++
		default:
			s.Passed++
		}
	}
	return s
}

// AllPassed reports whether every property passed.
func (s *Summary) AllPassed() bool {
	return s.Violated == 0 && s.Errored == 0
}

// ExitCode maps the summary onto the process exit code: 0 when everything
// passed, 1 when any invariant was violated, 3 when the only failures were
// infrastructure errors. Violations win over errors because they are the
// finding the run exists to surface.
func (s *Summary) ExitCode() int {
	switch {
	case s.Violated > 0:
		return 1
	case s.Errored > 0:
		return 3
	default:
		return 0
	}
}

var (
	passedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	violatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	erroredStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

func styleFor(outcome Outcome) lipgloss.Style {
	switch outcome {
	case OutcomeViolated:
		return violatedStyle
	case OutcomeErrored:
		return erroredStyle
	default:
		return passedStyle
	}
}

func symbolFor(outcome Outcome) string {
	switch outcome {
	case OutcomeViolated:
		return "✖"
	case OutcomeErrored:
		return "⚠"
	default:
		return "✔"
	}
}

// WriteText renders the human-readable report. For each violation it prints
// the localized finding plus the reproducing seed, trial index and config so
// the failure can be replayed without re-running the whole loop.
func WriteText(w io.Writer, s *Summary) {
	fmt.Fprintln(w, headerStyle.Render("\nProperty Results:"))
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%-28s %-8s %-12s %-8s %s\n", "Property", "Module", "Outcome", "Trials", "Duration")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range s.Results {
		style := styleFor(r.Outcome)
		fmt.Fprintf(w, "%-28s %-8s %-12s %-8d %.2fs\n",
			truncate(r.Property, 28),
			r.Module,
			style.Render(fmt.Sprintf("%s %s", symbolFor(r.Outcome), r.Outcome)),
			r.TrialsRun,
			r.Duration.Seconds(),
		)
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "\nSummary: %d total, %s, %s, %s\n",
		s.Total,
		passedStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
		violatedStyle.Render(fmt.Sprintf("%d violated", s.Violated)),
		erroredStyle.Render(fmt.Sprintf("%d errored", s.Errored)),
	)

	for _, r := range s.Results {
		switch r.Outcome {
		case OutcomeViolated:
			fmt.Fprintf(w, "\n--- %s (trial %d, seed %d) ---\n", r.Property, r.FailedAt, r.Seed)
			if r.Violation != nil {
				fmt.Fprintln(w, violatedStyle.Render(r.Violation.String()))
			}
			if r.ReproYAML != "" {
				fmt.Fprintln(w, faintStyle.Render("reproducing config:"))
				fmt.Fprint(w, r.ReproYAML)
			}
		case OutcomeErrored:
			fmt.Fprintf(w, "\n--- %s (trial %d, seed %d) ---\n", r.Property, r.FailedAt, r.Seed)
			if r.Err != nil {
				fmt.Fprintln(w, erroredStyle.Render("error: "+r.Err.Error()))
			}
		}
	}
}

type jsonResult struct {
	Property  string            `json:"property"`
	Module    string            `json:"module"`
	Outcome   string            `json:"outcome"`
	TrialsRun int               `json:"trials_run"`
	Seed      int64             `json:"seed"`
	FailedAt  *int              `json:"failed_at,omitempty"`
	Violation *invariant.Result `json:"violation,omitempty"`
	ReproYAML string            `json:"repro_config,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  float64           `json:"duration_seconds"`
}

type jsonReport struct {
	SuiteFile string `json:"suite_file"`
	Summary   struct {
		Total    int `json:"total"`
		Passed   int `json:"passed"`
		Violated int `json:"violated"`
		Errored  int `json:"errored"`
	} `json:"summary"`
	Results []jsonResult `json:"results"`
}

// WriteJSON renders the machine-readable report.
func WriteJSON(w io.Writer, s *Summary, suitePath string) error {
	report := jsonReport{SuiteFile: suitePath, Results: make([]jsonResult, len(s.Results))}
	report.Summary.Total = s.Total
	report.Summary.Passed = s.Passed
	report.Summary.Violated = s.Violated
	report.Summary.Errored = s.Errored

	for i, r := range s.Results {
		jr := jsonResult{
			Property:  r.Property,
			Module:    r.Module,
			Outcome:   string(r.Outcome),
			TrialsRun: r.TrialsRun,
			Seed:      r.Seed,
			Violation: r.Violation,
			ReproYAML: r.ReproYAML,
			Duration:  r.Duration.Seconds(),
		}
		if r.Outcome != OutcomePassed {
			failedAt := r.FailedAt
			jr.FailedAt = &failedAt
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		report.Results[i] = jr
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
