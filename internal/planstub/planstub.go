// Package planstub synthesizes the plan document a faithful implementation
// of the platform modules would produce for a rendered configuration,
// without invoking Terraform. It backs the harness's offline mode and the
// test suites, so `terraprobe check --offline` and `go test` need neither
// the real CLI nor network access.
//
// The stub consumes the same rendered HCL the real executor would, so the
// whole generate -> render -> plan -> parse -> check pipeline is exercised
// end to end.
package planstub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/alexisbeaulieu97/terraprobe/internal/plandoc"
	"github.com/alexisbeaulieu97/terraprobe/internal/render"
	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

// Planner satisfies the harness's planner contract in-process.
type Planner struct{}

// New creates a stub planner.
func New() *Planner {
	return &Planner{}
}

// ExecutePlan parses the rendered source, locates the module under test and
// synthesizes its planned resource values.
func (p *Planner) ExecutePlan(_ context.Context, source []byte) (*plandoc.Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(source, "main.tf")
	if diags.HasErrors() {
		return nil, proberrors.NewExecutionError("plan", diags.Error(), fmt.Errorf("invalid source"))
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, proberrors.NewExecutionError("plan", "", fmt.Errorf("unexpected HCL body type"))
	}

	for _, block := range body.Blocks {
		if block.Type != "module" || len(block.Labels) != 1 {
			continue
		}

		in, err := evalAttributes(block.Body.Attributes)
		if err != nil {
			return nil, err
		}

		switch block.Labels[0] {
		case render.ServiceModuleName:
			return document(serviceResources(in))
		case render.NetworkModuleName:
			return document(networkResources(in))
		}
	}

	return nil, proberrors.NewExecutionError("plan", "", fmt.Errorf("no module under test in source"))
}

// inputs carries the literal attribute values of the module block.
type inputs map[string]cty.Value

func evalAttributes(attrs hclsyntax.Attributes) (inputs, error) {
	out := make(inputs, len(attrs))
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(&hcl.EvalContext{})
		if diags.HasErrors() {
			return nil, proberrors.NewExecutionError("plan", diags.Error(), fmt.Errorf("non-literal module argument %q", name))
		}
		out[name] = value
	}
	return out, nil
}

func (in inputs) str(name string) string {
	v, ok := in[name]
	if !ok || v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

func (in inputs) num(name string) int64 {
	v, ok := in[name]
	if !ok || v.IsNull() || v.Type() != cty.Number {
		return 0
	}
	n, _ := v.AsBigFloat().Int64()
	return n
}

func (in inputs) boolean(name string) bool {
	v, ok := in[name]
	if !ok || v.IsNull() || v.Type() != cty.Bool {
		return false
	}
	return v.True()
}

func (in inputs) strings(name string) []string {
	v, ok := in[name]
	if !ok || v.IsNull() || !v.CanIterateElements() {
		return nil
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() == cty.String && !elem.IsNull() {
			out = append(out, elem.AsString())
		}
	}
	return out
}

type resource struct {
	Address string         `json:"address"`
	Mode    string         `json:"mode"`
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Values  map[string]any `json:"values"`
}

func document(moduleAddr string, resources []resource) (*plandoc.Document, error) {
	plan := map[string]any{
		"format_version": "1.2",
		"planned_values": map[string]any{
			"root_module": map[string]any{
				"child_modules": []any{
					map[string]any{
						"address":   moduleAddr,
						"resources": resources,
					},
				},
			},
		},
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return nil, proberrors.NewExecutionError("show", "", err)
	}
	return plandoc.Parse(data)
}
