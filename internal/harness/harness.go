// Package harness runs repeated generate -> render -> plan -> check trials
// for each property in a suite and reports per-property verdicts.
package harness

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/terraprobe/internal/genconfig"
	"github.com/alexisbeaulieu97/terraprobe/internal/invariant"
	"github.com/alexisbeaulieu97/terraprobe/internal/logger"
	"github.com/alexisbeaulieu97/terraprobe/internal/plandoc"
	"github.com/alexisbeaulieu97/terraprobe/internal/render"
	"github.com/alexisbeaulieu97/terraprobe/internal/suite"
)

// Planner produces a plan document from rendered module source. The real
// implementation shells out to Terraform; tests and offline mode use an
// in-process stub.
type Planner interface {
	ExecutePlan(ctx context.Context, source []byte) (*plandoc.Document, error)
}

// Outcome classifies how a property run ended.
type Outcome string

const (
	// OutcomePassed means every trial satisfied every selected invariant.
	OutcomePassed Outcome = "passed"
	// OutcomeViolated means a trial produced a plan violating an invariant:
	// a genuine finding about the module under test.
	OutcomeViolated Outcome = "violated"
	// OutcomeErrored means the pipeline itself failed (render, execution or
	// parse): a test-infrastructure failure, distinct from a violation.
	OutcomeErrored Outcome = "errored"
)

// PropertyResult summarizes one property's trial loop. For the first
// violation encountered it carries a minimal reproducing input: the base
// seed, the failing trial index and the generated config as YAML.
type PropertyResult struct {
	Property  string
	Module    string
	TrialsRun int
	Outcome   Outcome
	Violation *invariant.Result
	Seed      int64
	FailedAt  int
	ReproYAML string
	Err       error
	Duration  time.Duration
}

// Runner drives property runs against a Planner.
type Runner struct {
	planner Planner
	log     *logger.Logger
}

// NewRunner creates a harness Runner.
func NewRunner(planner Planner, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Runner{planner: planner, log: log}
}

// RunProperty executes the property's trial loop. Trials are strictly
// sequential within one property; each trial draws a fresh config from its
// own random source (base seed + trial index), so any failing trial can be
// replayed in isolation.
func (r *Runner) RunProperty(ctx context.Context, prop suite.Property) PropertyResult {
	seed := prop.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	trials := prop.Trials
	if trials <= 0 {
		trials = suite.DefaultTrials
	}

	result := PropertyResult{
		Property: prop.ID,
		Module:   prop.Module,
		Seed:     seed,
		Outcome:  OutcomePassed,
	}

	log := r.log.WithFields(map[string]any{"property": prop.ID, "module": prop.Module, "seed": seed})
	log.Debug("property started")
	start := time.Now()

	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			result.Outcome = OutcomeErrored
			result.Err = err
			break
		}

		rng := rand.New(rand.NewSource(seed + int64(i)))

		violation, repro, err := r.runTrial(ctx, prop, rng)
		result.TrialsRun = i + 1

		if err != nil {
			log.Error(err, "trial failed before checking invariants")
			result.Outcome = OutcomeErrored
			result.FailedAt = i
			result.Err = err
			break
		}

		if violation != nil {
			log.WithFields(map[string]any{"trial": i, "invariant": violation.Invariant}).Warn("invariant violated")
			result.Outcome = OutcomeViolated
			result.Violation = violation
			result.FailedAt = i
			result.ReproYAML = repro
			break
		}
	}

	result.Duration = time.Since(start)
	log.WithFields(map[string]any{
		"outcome":  string(result.Outcome),
		"trials":   result.TrialsRun,
		"duration": result.Duration.String(),
	}).Info("property finished")

	return result
}

// runTrial executes one full pipeline iteration and returns the first
// violated invariant, if any, along with the reproducing config dump.
func (r *Runner) runTrial(ctx context.Context, prop suite.Property, rng *rand.Rand) (*invariant.Result, string, error) {
	switch prop.Module {
	case "network":
		cfg := genconfig.DrawNetwork(rng)

		source, err := render.Network(cfg)
		if err != nil {
			return nil, "", err
		}

		doc, err := r.planner.ExecutePlan(ctx, source)
		if err != nil {
			return nil, "", err
		}

		for _, check := range selectNetworkChecks(prop.Invariants) {
			if res := check.Run(cfg, doc); !res.Satisfied {
				return &res, reproDump(cfg), nil
			}
		}
		return nil, "", nil

	default:
		cfg := genconfig.DrawService(rng)

		source, err := render.Service(cfg)
		if err != nil {
			return nil, "", err
		}

		doc, err := r.planner.ExecutePlan(ctx, source)
		if err != nil {
			return nil, "", err
		}

		for _, check := range selectServiceChecks(prop.Invariants) {
			if res := check.Run(cfg, doc); !res.Satisfied {
				return &res, reproDump(cfg), nil
			}
		}
		return nil, "", nil
	}
}

// RunSuite runs every property, bounded by the suite's parallel setting.
// Properties are mutually independent, so ordering between them carries no
// meaning; results come back in definition order regardless.
func (r *Runner) RunSuite(ctx context.Context, s *suite.Suite) []PropertyResult {
	parallel := s.Terraform.Parallel
	if parallel < 1 {
		parallel = 1
	}

	results := make([]PropertyResult, len(s.Properties))
	sem := make(chan struct{}, parallel)

	var wg sync.WaitGroup
	for i, prop := range s.Properties {
		wg.Add(1)
		go func(i int, prop suite.Property) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.RunProperty(ctx, prop)
		}(i, prop)
	}
	wg.Wait()

	return results
}

func selectServiceChecks(names []string) []invariant.ServiceCheck {
	all := invariant.ServiceChecks()
	if len(names) == 0 {
		return all
	}
	var out []invariant.ServiceCheck
	for _, check := range all {
		if containsName(names, check.Name) {
			out = append(out, check)
		}
	}
	return out
}

func selectNetworkChecks(names []string) []invariant.NetworkCheck {
	all := invariant.NetworkChecks()
	if len(names) == 0 {
		return all
	}
	var out []invariant.NetworkCheck
	for _, check := range all {
		if containsName(names, check.Name) {
			out = append(out, check)
		}
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

func reproDump(cfg any) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	return string(data)
}
