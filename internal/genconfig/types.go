// Package genconfig produces randomized-but-valid module configurations for
// the platform's Terraform modules. Every draw is closed over the module's
// documented input domain, so generation never fails and never needs
// rejection sampling; an invalid draw is a generator bug.
package genconfig

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

// ServiceType selects the exposure model of an ECS service.
type ServiceType string

const (
	// ServicePublic services sit behind an ALB target group.
	ServicePublic ServiceType = "public"
	// ServiceInternal services register with Cloud Map service discovery
	// instead of a load balancer.
	ServiceInternal ServiceType = "internal"
)

// Environments enumerates the platform's deployment environments.
var Environments = []string{"develop", "test", "qa", "prod"}

// ServiceConfig holds every input required to instantiate one ECS service
// module invocation. Immutable once drawn; consumed by exactly one pipeline run.
type ServiceConfig struct {
	Environment          string      `yaml:"environment" validate:"required,oneof=develop test qa prod"`
	ServiceName          string      `yaml:"service_name" validate:"required,service_name"`
	ServiceType          ServiceType `yaml:"service_type" validate:"required,oneof=public internal"`
	ContainerPort        int         `yaml:"container_port" validate:"min=1024,max=65535"`
	DesiredCount         int         `yaml:"desired_count" validate:"min=1,max=10"`
	MinHealthyPercent    int         `yaml:"min_healthy_percent" validate:"min=0,max=200"`
	MaxPercent           int         `yaml:"max_percent" validate:"min=100,max=400"`
	CPU                  int         `yaml:"cpu" validate:"oneof=256 512 1024 2048"`
	Memory               int         `yaml:"memory" validate:"min=512,max=16384"`
	PrivateSubnetIDs     []string    `yaml:"private_subnet_ids" validate:"required,min=2,max=3,dive,subnet_id"`
	TargetGroupARN       string      `yaml:"target_group_arn,omitempty" validate:"omitempty,target_group_arn"`
	DiscoveryNamespaceID string      `yaml:"discovery_namespace_id,omitempty" validate:"omitempty,namespace_id"`
	AssignPublicIP       bool        `yaml:"assign_public_ip"`
}

// NetworkConfig holds every input required to instantiate one VPC module
// invocation.
type NetworkConfig struct {
	Environment        string   `yaml:"environment" validate:"required,oneof=develop test qa prod"`
	VPCCIDR            string   `yaml:"vpc_cidr" validate:"required,cidrv4"`
	AZCount            int      `yaml:"az_count" validate:"min=2,max=3"`
	PublicSubnetCIDRs  []string `yaml:"public_subnet_cidrs" validate:"required,min=2,max=3,dive,cidrv4"`
	PrivateSubnetCIDRs []string `yaml:"private_subnet_cidrs" validate:"required,min=2,max=3,dive,cidrv4"`
	EnableNAT          bool     `yaml:"enable_nat"`
	SingleNAT          bool     `yaml:"single_nat"`
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	serviceNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{2,31}$`)
	subnetIDPattern    = regexp.MustCompile(`^subnet-[0-9a-f]{17}$`)
	targetGroupPattern = regexp.MustCompile(`^arn:aws:elasticloadbalancing:[a-z]{2}-[a-z]+-\d:\d{12}:targetgroup/[A-Za-z0-9-]{1,32}/[0-9a-f]{16}$`)
	namespacePattern   = regexp.MustCompile(`^ns-[0-9a-z]{16}$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("service_name", func(fl validator.FieldLevel) bool {
			return serviceNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("subnet_id", func(fl validator.FieldLevel) bool {
			return subnetIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("target_group_arn", func(fl validator.FieldLevel) bool {
			return targetGroupPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("namespace_id", func(fl validator.FieldLevel) bool {
			return namespacePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate checks that every field satisfies the service module's own input
// constraints, including the conditional-field policy tying exposure type to
// load-balancer and service-discovery inputs.
func (c ServiceConfig) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		return convertValidationError(err)
	}

	switch c.ServiceType {
	case ServicePublic:
		if c.TargetGroupARN == "" {
			return proberrors.NewValidationError("target_group_arn", "required for public services", nil)
		}
		if c.DiscoveryNamespaceID != "" {
			return proberrors.NewValidationError("discovery_namespace_id", "must be absent for public services", nil)
		}
	case ServiceInternal:
		if c.DiscoveryNamespaceID == "" {
			return proberrors.NewValidationError("discovery_namespace_id", "required for internal services", nil)
		}
		if c.TargetGroupARN != "" {
			return proberrors.NewValidationError("target_group_arn", "must be absent for internal services", nil)
		}
		if c.AssignPublicIP {
			return proberrors.NewValidationError("assign_public_ip", "internal services must not receive public addresses", nil)
		}
	}

	allowed, ok := fargateMemory[c.CPU]
	if !ok {
		return proberrors.NewValidationError("cpu", fmt.Sprintf("unsupported Fargate cpu %d", c.CPU), nil)
	}
	for _, mem := range allowed {
		if mem == c.Memory {
			return nil
		}
	}
	return proberrors.NewValidationError("memory", fmt.Sprintf("memory %d is not valid for cpu %d", c.Memory, c.CPU), nil)
}

// Validate checks that every field satisfies the VPC module's own input
// constraints, including subnet-per-AZ cardinality and the NAT flag pairing.
func (c NetworkConfig) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		return convertValidationError(err)
	}

	if len(c.PublicSubnetCIDRs) != c.AZCount {
		return proberrors.NewValidationError("public_subnet_cidrs", fmt.Sprintf("want %d entries for %d AZs", c.AZCount, c.AZCount), nil)
	}
	if len(c.PrivateSubnetCIDRs) != c.AZCount {
		return proberrors.NewValidationError("private_subnet_cidrs", fmt.Sprintf("want %d entries for %d AZs", c.AZCount, c.AZCount), nil)
	}
	if c.SingleNAT && !c.EnableNAT {
		return proberrors.NewValidationError("single_nat", "requires enable_nat", nil)
	}

	return nil
}

// fargateMemory maps each supported Fargate cpu unit value to its legal
// memory (MiB) choices.
var fargateMemory = map[int][]int{
	256:  {512, 1024, 2048},
	512:  {1024, 2048, 4096},
	1024: {2048, 4096, 8192},
	2048: {4096, 8192, 16384},
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

	return proberrors.NewValidationError("config", err.Error(), err)
}
