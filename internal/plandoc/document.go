// Package plandoc provides a typed, read-only model of the JSON document
// emitted by `terraform show -json`, with path-based attribute queries so
// invariant checks never walk raw JSON themselves.
//
// The expected shape is the planned_values section of Terraform's plan
// representation (format_version 1.x): a root module holding resource nodes
// (address, type, name, values) plus recursively nested child modules. A
// change to that shape is a breaking change this package must follow.
package plandoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

// Resource is one node in the plan graph: a single planned infrastructure
// object identified by kind, name and a unique address.
type Resource struct {
	Address string
	Type    string
	Name    string
	values  Value
}

// Document is the parsed plan graph. It is read-only after construction and
// owned by the single trial that produced it.
type Document struct {
	formatVersion string
	resources     []*Resource
	byAddress     map[string]*Resource
}

type planJSON struct {
	FormatVersion string `json:"format_version"`
	PlannedValues struct {
		RootModule moduleJSON `json:"root_module"`
	} `json:"planned_values"`
}

type moduleJSON struct {
	Address      string         `json:"address"`
	Resources    []resourceJSON `json:"resources"`
	ChildModules []moduleJSON   `json:"child_modules"`
}

type resourceJSON struct {
	Address string         `json:"address"`
	Mode    string         `json:"mode"`
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Values  map[string]any `json:"values"`
}

// Parse decodes plan JSON into a Document. Malformed JSON is a hard failure;
// individually malformed resource nodes are tolerated and surface as absent
// attributes at query time.
func Parse(data []byte) (*Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var plan planJSON
	if err := decoder.Decode(&plan); err != nil {
		return nil, proberrors.NewParseError("plan", 0, err)
	}

	doc := &Document{
		formatVersion: plan.FormatVersion,
		byAddress:     make(map[string]*Resource),
	}

	if err := doc.collect(plan.PlannedValues.RootModule); err != nil {
		return nil, err
	}

	return doc, nil
}

// collect flattens a module and its children depth-first, preserving the
// order in which the tool emitted resources. Order only matters for stable
// diagnostics, never for correctness.
func (d *Document) collect(mod moduleJSON) error {
	for _, raw := range mod.Resources {
		res := &Resource{
			Address: raw.Address,
			Type:    raw.Type,
			Name:    raw.Name,
			values:  fromJSON(anyMap(raw.Values)),
		}
		if res.Address != "" {
			if _, dup := d.byAddress[res.Address]; dup {
				return proberrors.NewParseError("plan", 0, fmt.Errorf("duplicate resource address %q", res.Address))
			}
			d.byAddress[res.Address] = res
		}
		d.resources = append(d.resources, res)
	}

	for _, child := range mod.ChildModules {
		if err := d.collect(child); err != nil {
			return err
		}
	}

	return nil
}

func anyMap(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// FormatVersion reports the plan schema version declared by the tool.
func (d *Document) FormatVersion() string {
	return d.formatVersion
}

// Len returns the number of resource nodes in the document.
func (d *Document) Len() int {
	return len(d.resources)
}

// ResourcesOfType returns all resource nodes whose kind equals the argument,
// in emission order.
func (d *Document) ResourcesOfType(kind string) []*Resource {
	var out []*Resource
	for _, res := range d.resources {
		if res.Type == kind {
			out = append(out, res)
		}
	}
	return out
}

// ResourcesNamed returns the resource nodes of the given kind whose name
// matches, in emission order. Indexed instances of one resource block share
// a name, so counted resources come back as one slice.
func (d *Document) ResourcesNamed(kind, name string) []*Resource {
	var out []*Resource
	for _, res := range d.resources {
		if res.Type == kind && res.Name == name {
			out = append(out, res)
		}
	}
	return out
}

// ByAddress looks a resource up by its unique address.
func (d *Document) ByAddress(address string) (*Resource, bool) {
	res, ok := d.byAddress[address]
	return res, ok
}

// Attribute resolves a path expression such as
// "network_configuration[0].subnets" against the resource's attribute map.
// It returns Absent when any path segment fails to resolve; callers must not
// conflate absent with null, empty or false.
func (r *Resource) Attribute(path string) Value {
	segments, err := parsePath(path)
	if err != nil {
		return Absent
	}

	current := r.values
	for _, seg := range segments {
		if seg.key != "" {
			current = current.Key(seg.key)
		} else {
			current = current.Index(seg.index)
		}
		if current.IsAbsent() {
			return Absent
		}
	}
	return current
}

type pathSegment struct {
	key   string
	index int
}

// parsePath splits "a.b[0].c" into field and index segments.
func parsePath(path string) ([]pathSegment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty attribute path")
	}

	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("empty segment in path %q", path)
		}

		rest := part
		for {
			open := strings.IndexByte(rest, '[')
			if open < 0 {
				if rest != "" {
					segments = append(segments, pathSegment{key: rest})
				}
				break
			}

			if open > 0 {
				segments = append(segments, pathSegment{key: rest[:open]})
			}

			closing := strings.IndexByte(rest, ']')
			if closing < open {
				return nil, fmt.Errorf("unbalanced index in path %q", path)
			}

			index, err := strconv.Atoi(rest[open+1 : closing])
			if err != nil || index < 0 {
				return nil, fmt.Errorf("invalid index in path %q", path)
			}

			segments = append(segments, pathSegment{index: index})
			rest = rest[closing+1:]
		}
	}

	return segments, nil
}
