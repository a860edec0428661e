// Package render serializes generated configurations into Terraform source
// text. Rendering is pure: the caller owns writing the output to disk.
//
// Every rendered file is self-contained: a terraform settings block, an AWS
// provider pinned to mock endpoints (no credentials, no real cloud calls),
// and exactly one module block carrying the generated inputs.
package render

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/alexisbeaulieu97/terraprobe/internal/genconfig"
	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

// Module block labels used by the harness. The plan stub and the invariant
// checks rely on these to locate the module under test.
const (
	ServiceModuleName = "service_under_test"
	NetworkModuleName = "network_under_test"
)

// mockEndpoint is where every AWS API call is pointed. Plans never reach a
// real endpoint: provider-side validation happens locally and the harness
// only ever computes plans, but a misconfigured run must still have nowhere
// real to go.
const mockEndpoint = "http://localhost:4566"

// Service renders a ServiceConfig into module source text.
func Service(cfg genconfig.ServiceConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, proberrors.NewRenderError("service", err)
	}

	file := hclwrite.NewEmptyFile()
	root := file.Body()

	writePreamble(root)

	block := root.AppendNewBlock("module", []string{ServiceModuleName})
	body := block.Body()
	body.SetAttributeValue("source", cty.StringVal("../../modules/ecs-service"))
	body.SetAttributeValue("environment", cty.StringVal(cfg.Environment))
	body.SetAttributeValue("service_name", cty.StringVal(cfg.ServiceName))
	body.SetAttributeValue("service_type", cty.StringVal(string(cfg.ServiceType)))
	body.SetAttributeValue("container_port", cty.NumberIntVal(int64(cfg.ContainerPort)))
	body.SetAttributeValue("desired_count", cty.NumberIntVal(int64(cfg.DesiredCount)))
	body.SetAttributeValue("min_healthy_percent", cty.NumberIntVal(int64(cfg.MinHealthyPercent)))
	body.SetAttributeValue("max_percent", cty.NumberIntVal(int64(cfg.MaxPercent)))
	body.SetAttributeValue("cpu", cty.NumberIntVal(int64(cfg.CPU)))
	body.SetAttributeValue("memory", cty.NumberIntVal(int64(cfg.Memory)))
	body.SetAttributeValue("private_subnet_ids", stringList(cfg.PrivateSubnetIDs))

	// Optional identifiers render as explicit nulls when unset. An empty
	// string here would let the module silently default the field instead of
	// leaving it out.
	body.SetAttributeValue("target_group_arn", optionalString(cfg.TargetGroupARN))
	body.SetAttributeValue("discovery_namespace_id", optionalString(cfg.DiscoveryNamespaceID))
	body.SetAttributeValue("assign_public_ip", cty.BoolVal(cfg.AssignPublicIP))

	return file.Bytes(), nil
}

// Network renders a NetworkConfig into module source text.
func Network(cfg genconfig.NetworkConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, proberrors.NewRenderError("network", err)
	}

	file := hclwrite.NewEmptyFile()
	root := file.Body()

	writePreamble(root)

	block := root.AppendNewBlock("module", []string{NetworkModuleName})
	body := block.Body()
	body.SetAttributeValue("source", cty.StringVal("../../modules/vpc"))
	body.SetAttributeValue("environment", cty.StringVal(cfg.Environment))
	body.SetAttributeValue("vpc_cidr", cty.StringVal(cfg.VPCCIDR))
	body.SetAttributeValue("az_count", cty.NumberIntVal(int64(cfg.AZCount)))
	body.SetAttributeValue("public_subnet_cidrs", stringList(cfg.PublicSubnetCIDRs))
	body.SetAttributeValue("private_subnet_cidrs", stringList(cfg.PrivateSubnetCIDRs))
	body.SetAttributeValue("enable_nat", cty.BoolVal(cfg.EnableNAT))
	body.SetAttributeValue("single_nat", cty.BoolVal(cfg.SingleNAT))

	return file.Bytes(), nil
}

func writePreamble(root *hclwrite.Body) {
	terraform := root.AppendNewBlock("terraform", nil)
	terraform.Body().SetAttributeValue("required_version", cty.StringVal(">= 1.5.0"))
	root.AppendNewline()

	provider := root.AppendNewBlock("provider", []string{"aws"})
	body := provider.Body()
	body.SetAttributeValue("region", cty.StringVal("us-east-1"))
	body.SetAttributeValue("access_key", cty.StringVal("mock"))
	body.SetAttributeValue("secret_key", cty.StringVal("mock"))
	body.SetAttributeValue("skip_credentials_validation", cty.BoolVal(true))
	body.SetAttributeValue("skip_metadata_api_check", cty.BoolVal(true))
	body.SetAttributeValue("skip_requesting_account_id", cty.BoolVal(true))
	body.SetAttributeValue("s3_use_path_style", cty.BoolVal(true))

	endpoints := body.AppendNewBlock("endpoints", nil).Body()
	for _, service := range []string{"ec2", "ecs", "elbv2", "iam", "logs", "servicediscovery", "sts"} {
		endpoints.SetAttributeValue(service, cty.StringVal(mockEndpoint))
	}
	root.AppendNewline()
}

// stringList renders a []string as an HCL list literal. A nil or empty slice
// renders as [], which the module distinguishes from null.
func stringList(values []string) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	elems := make([]cty.Value, len(values))
	for i, v := range values {
		elems[i] = cty.StringVal(v)
	}
	return cty.ListVal(elems)
}

func optionalString(value string) cty.Value {
	if value == "" {
		return cty.NullVal(cty.String)
	}
	return cty.StringVal(value)
}
