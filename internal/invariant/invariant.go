// Package invariant holds the named properties checked against each
// (generated config, plan document) pair. Every check is a pure predicate:
// it never mutates its inputs, and checks are independent and
// order-insensitive, so running any subset cannot affect another's outcome.
package invariant

import (
	"fmt"

	"github.com/alexisbeaulieu97/terraprobe/internal/genconfig"
	"github.com/alexisbeaulieu97/terraprobe/internal/plandoc"
)

// Result is the verdict of one check against one plan. On violation it
// localizes the failure: which resource was inspected, which attribute,
// what was expected and what the plan actually contained.
type Result struct {
	Invariant string `json:"invariant" yaml:"invariant"`
	Satisfied bool   `json:"satisfied" yaml:"satisfied"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Attribute string `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Expected  string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Observed  string `json:"observed,omitempty" yaml:"observed,omitempty"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String renders the result for diagnostics.
func (r Result) String() string {
	if r.Satisfied {
		return fmt.Sprintf("%s: satisfied", r.Invariant)
	}
	out := fmt.Sprintf("%s: violated", r.Invariant)
	if r.Address != "" {
		out += fmt.Sprintf(" at %s", r.Address)
	}
	if r.Attribute != "" {
		out += fmt.Sprintf(" (%s)", r.Attribute)
	}
	if r.Expected != "" || r.Observed != "" {
		out += fmt.Sprintf(": expected %s, observed %s", r.Expected, r.Observed)
	}
	if r.Detail != "" {
		out += ": " + r.Detail
	}
	return out
}

// ServiceCheck is a named predicate over a service module plan.
type ServiceCheck struct {
	Name string
	Run  func(genconfig.ServiceConfig, *plandoc.Document) Result
}

// NetworkCheck is a named predicate over a network module plan.
type NetworkCheck struct {
	Name string
	Run  func(genconfig.NetworkConfig, *plandoc.Document) Result
}

// Names lists the registered invariant names for a module kind, in the
// stable order they run.
func Names(module string) []string {
	switch module {
	case "service":
		checks := ServiceChecks()
		names := make([]string, len(checks))
		for i, c := range checks {
			names[i] = c.Name
		}
		return names
	case "network":
		checks := NetworkChecks()
		names := make([]string, len(checks))
		for i, c := range checks {
			names[i] = c.Name
		}
		return names
	default:
		return nil
	}
}

// Known reports whether a module kind registers an invariant by this name.
func Known(module, name string) bool {
	for _, candidate := range Names(module) {
		if candidate == name {
			return true
		}
	}
	return false
}

func pass(name string) Result {
	return Result{Invariant: name, Satisfied: true}
}

func fail(name, address, attribute, expected, observed string) Result {
	return Result{
		Invariant: name,
		Address:   address,
		Attribute: attribute,
		Expected:  expected,
		Observed:  observed,
	}
}

func observed(v plandoc.Value) string {
	return v.GoString()
}
