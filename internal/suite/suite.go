// Package suite loads and validates the harness's suite definition file: a
// YAML document naming the properties to run, their trial counts and the
// Terraform settings shared by every run.
package suite

import (
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/terraprobe/internal/invariant"
	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

// Suite represents the full suite definition document.
type Suite struct {
	Version    string     `yaml:"version" validate:"required,schema_version"`
	Name       string     `yaml:"name" validate:"required,min=1,max=100"`
	Terraform  Terraform  `yaml:"terraform,omitempty"`
	Properties []Property `yaml:"properties" validate:"required,min=1,dive"`
}

// Terraform holds the settings shared by every plan execution.
type Terraform struct {
	Binary   string `yaml:"binary,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty" validate:"omitempty,min=1,max=3600"`
	Parallel int    `yaml:"parallel,omitempty" validate:"omitempty,min=1,max=16"`
}

// Property names one repeated trial loop: which module it targets, how many
// trials to run and, optionally, a fixed seed and a subset of invariants.
type Property struct {
	ID         string   `yaml:"id" validate:"required,property_id"`
	Module     string   `yaml:"module" validate:"required,oneof=service network"`
	Trials     int      `yaml:"trials,omitempty" validate:"omitempty,min=1,max=10000"`
	Seed       int64    `yaml:"seed,omitempty"`
	Invariants []string `yaml:"invariants,omitempty"`
}

// DefaultTrials is the trial count applied when a property leaves it unset.
const DefaultTrials = 100

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	versionPattern    = regexp.MustCompile(`^\d+\.\d+$`)
	propertyIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	yamlLineRegex     = regexp.MustCompile(`line (\d+)`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("schema_version", func(fl validator.FieldLevel) bool {
			return versionPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("property_id", func(fl validator.FieldLevel) bool {
			return propertyIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Parse loads a suite definition from disk, validates it and applies
// defaults.
func Parse(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, proberrors.NewParseError(path, 0, err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, proberrors.NewParseError(path, extractLine(err), err)
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}

	applyDefaults(&s)
	return &s, nil
}

// Validate performs schema and cross-field validation on the suite.
func Validate(s *Suite) error {
	if s == nil {
		return proberrors.NewValidationError("suite", "suite is nil", nil)
	}

	if err := validatorInstance().Struct(s); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]int, len(s.Properties))
	for i, prop := range s.Properties {
		if _, exists := seen[prop.ID]; exists {
			return proberrors.NewValidationError(fieldForProperty(i, "id"), fmt.Sprintf("duplicate property id %q", prop.ID), nil)
		}
		seen[prop.ID] = i

		for _, name := range prop.Invariants {
			if !invariant.Known(prop.Module, name) {
				return proberrors.NewValidationError(fieldForProperty(i, "invariants"),
					fmt.Sprintf("unknown %s invariant %q", prop.Module, name), nil)
			}
		}
	}

	return nil
}

func applyDefaults(s *Suite) {
	if s.Terraform.Binary == "" {
		s.Terraform.Binary = "terraform"
	}
	if s.Terraform.Timeout == 0 {
		s.Terraform.Timeout = 120
	}
	if s.Terraform.Parallel == 0 {
		s.Terraform.Parallel = 1
	}
	for i := range s.Properties {
		if s.Properties[i].Trials == 0 {
			s.Properties[i].Trials = DefaultTrials
		}
	}
}

// StageTimeout returns the per-stage timeout as a duration.
func (t Terraform) StageTimeout() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		msg := fmt.Sprintf("%s failed validation for tag '%s'", ve.StructNamespace(), ve.Tag())
		return proberrors.NewValidationError(ve.StructNamespace(), msg, err)
	}

	return proberrors.NewValidationError("suite", err.Error(), err)
}

func fieldForProperty(index int, field string) string {
	return fmt.Sprintf("properties[%d].%s", index, field)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
