package invariant

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/go-cmp/cmp"

	"github.com/alexisbeaulieu97/terraprobe/internal/genconfig"
	"github.com/alexisbeaulieu97/terraprobe/internal/plandoc"
)

// ServiceChecks returns the invariants evaluated against every generated
// ECS service configuration.
func ServiceChecks() []ServiceCheck {
	return []ServiceCheck{
		{Name: "service_single_resource", Run: checkSingleService},
		{Name: "service_name_propagates", Run: checkServiceName},
		{Name: "service_desired_count", Run: checkDesiredCount},
		{Name: "service_deployment_bounds", Run: checkDeploymentBounds},
		{Name: "service_load_balancer_matches_exposure", Run: checkLoadBalancer},
		{Name: "service_discovery_matches_exposure", Run: checkServiceDiscovery},
		{Name: "service_subnets_match_input", Run: checkServiceSubnets},
		{Name: "service_internal_private_addressing", Run: checkInternalAddressing},
		{Name: "service_container_port_propagates", Run: checkContainerPort},
		{Name: "service_ingress_port_matches", Run: checkIngressPort},
		{Name: "service_task_sizing_propagates", Run: checkTaskSizing},
	}
}

// theService returns the single planned ECS service node, or a violation
// when the plan does not contain exactly one.
func theService(name string, doc *plandoc.Document) (*plandoc.Resource, Result, bool) {
	services := doc.ResourcesOfType("aws_ecs_service")
	if len(services) != 1 {
		res := fail(name, "", "", "exactly 1 aws_ecs_service resource", strconv.Itoa(len(services)))
		return nil, res, false
	}
	return services[0], Result{}, true
}

func checkSingleService(_ genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_single_resource"
	if _, res, ok := theService(name, doc); !ok {
		return res
	}
	return pass(name)
}

func checkServiceName(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_name_propagates"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	got := svc.Attribute("name")
	if s, ok := got.AsString(); !ok || s != cfg.ServiceName {
		return fail(name, svc.Address, "name", strconv.Quote(cfg.ServiceName), observed(got))
	}
	return pass(name)
}

func checkDesiredCount(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_desired_count"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	got := svc.Attribute("desired_count")
	n, isInt := got.AsInt()
	if !isInt || n != int64(cfg.DesiredCount) || n < 1 {
		return fail(name, svc.Address, "desired_count", strconv.Itoa(cfg.DesiredCount), observed(got))
	}
	return pass(name)
}

// checkDeploymentBounds holds regardless of input: the module must clamp
// deployment percentages into the ranges ECS accepts.
func checkDeploymentBounds(_ genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_deployment_bounds"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	minimum := svc.Attribute("deployment_minimum_healthy_percent")
	if n, isInt := minimum.AsInt(); !isInt || n < 0 || n > 200 {
		return fail(name, svc.Address, "deployment_minimum_healthy_percent", "integer in [0,200]", observed(minimum))
	}

	maximum := svc.Attribute("deployment_maximum_percent")
	if n, isInt := maximum.AsInt(); !isInt || n < 100 || n > 400 {
		return fail(name, svc.Address, "deployment_maximum_percent", "integer in [100,400]", observed(maximum))
	}

	return pass(name)
}

func checkLoadBalancer(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_load_balancer_matches_exposure"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	blocks := svc.Attribute("load_balancer")

	if cfg.ServiceType == genconfig.ServiceInternal {
		if blocks.Len() != 0 {
			return fail(name, svc.Address, "load_balancer", "no load balancer blocks for internal service", observed(blocks))
		}
		return pass(name)
	}

	if blocks.Kind() != plandoc.KindList || blocks.Len() != 1 {
		return fail(name, svc.Address, "load_balancer", "exactly 1 load balancer block for public service", observed(blocks))
	}

	arn := blocks.Index(0).Key("target_group_arn")
	if s, ok := arn.AsString(); !ok || s != cfg.TargetGroupARN {
		return fail(name, svc.Address, "load_balancer[0].target_group_arn", strconv.Quote(cfg.TargetGroupARN), observed(arn))
	}

	return pass(name)
}

func checkServiceDiscovery(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_discovery_matches_exposure"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	registries := svc.Attribute("service_registries")

	if cfg.ServiceType == genconfig.ServiceInternal {
		if registries.Kind() != plandoc.KindList || registries.Len() == 0 {
			return fail(name, svc.Address, "service_registries", "non-empty service_registries block for internal service", observed(registries))
		}
		return pass(name)
	}

	if registries.Len() != 0 {
		return fail(name, svc.Address, "service_registries", "no service_registries blocks for public service", observed(registries))
	}
	return pass(name)
}

func checkServiceSubnets(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_subnets_match_input"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	subnets := svc.Attribute("network_configuration[0].subnets")
	got, isStrings := subnets.Strings()
	if !isStrings {
		return fail(name, svc.Address, "network_configuration[0].subnets", "list of subnet ids", observed(subnets))
	}

	if diff := cmp.Diff(cfg.PrivateSubnetIDs, got); diff != "" {
		res := fail(name, svc.Address, "network_configuration[0].subnets",
			fmt.Sprintf("%v", cfg.PrivateSubnetIDs), fmt.Sprintf("%v", got))
		res.Detail = diff
		return res
	}
	return pass(name)
}

func checkInternalAddressing(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_internal_private_addressing"
	svc, res, ok := theService(name, doc)
	if !ok {
		return res
	}

	if cfg.ServiceType != genconfig.ServiceInternal {
		return pass(name)
	}

	assign := svc.Attribute("network_configuration[0].assign_public_ip")
	if b, isBool := assign.AsBool(); !isBool || b {
		return fail(name, svc.Address, "network_configuration[0].assign_public_ip", "false", observed(assign))
	}
	return pass(name)
}

// containerDefinition mirrors the subset of the ECS container definition
// document the harness asserts on. The provider carries the whole document
// as an embedded JSON string attribute.
type containerDefinition struct {
	Name         string `json:"name"`
	PortMappings []struct {
		ContainerPort json.Number `json:"containerPort"`
	} `json:"portMappings"`
}

func checkContainerPort(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_container_port_propagates"

	defs := doc.ResourcesOfType("aws_ecs_task_definition")
	if len(defs) != 1 {
		return fail(name, "", "", "exactly 1 aws_ecs_task_definition resource", strconv.Itoa(len(defs)))
	}
	task := defs[0]

	raw, ok := task.Attribute("container_definitions").AsString()
	if !ok {
		return fail(name, task.Address, "container_definitions", "embedded JSON document", observed(task.Attribute("container_definitions")))
	}

	var containers []containerDefinition
	if err := json.Unmarshal([]byte(raw), &containers); err != nil || len(containers) == 0 {
		return fail(name, task.Address, "container_definitions", "parseable container definition list", strconv.Quote(raw))
	}

	for _, mapping := range containers[0].PortMappings {
		if mapping.ContainerPort.String() == strconv.Itoa(cfg.ContainerPort) {
			return pass(name)
		}
	}
	return fail(name, task.Address, "container_definitions[0].portMappings",
		fmt.Sprintf("containerPort %d", cfg.ContainerPort), raw)
}

func checkIngressPort(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_ingress_port_matches"

	groups := doc.ResourcesNamed("aws_security_group", "service")
	if len(groups) != 1 {
		return fail(name, "", "", "exactly 1 aws_security_group.service resource", strconv.Itoa(len(groups)))
	}
	sg := groups[0]

	from := sg.Attribute("ingress[0].from_port")
	to := sg.Attribute("ingress[0].to_port")
	want := int64(cfg.ContainerPort)

	if n, isInt := from.AsInt(); !isInt || n != want {
		return fail(name, sg.Address, "ingress[0].from_port", strconv.Itoa(cfg.ContainerPort), observed(from))
	}
	if n, isInt := to.AsInt(); !isInt || n != want {
		return fail(name, sg.Address, "ingress[0].to_port", strconv.Itoa(cfg.ContainerPort), observed(to))
	}
	return pass(name)
}

// checkTaskSizing asserts cpu and memory propagate verbatim. The provider
// schema represents both as strings on the task definition, so the check
// compares against the decimal rendering, not a coerced number.
func checkTaskSizing(cfg genconfig.ServiceConfig, doc *plandoc.Document) Result {
	const name = "service_task_sizing_propagates"

	defs := doc.ResourcesOfType("aws_ecs_task_definition")
	if len(defs) != 1 {
		return fail(name, "", "", "exactly 1 aws_ecs_task_definition resource", strconv.Itoa(len(defs)))
	}
	task := defs[0]

	cpu := task.Attribute("cpu")
	if s, ok := cpu.AsString(); !ok || s != strconv.Itoa(cfg.CPU) {
		return fail(name, task.Address, "cpu", strconv.Quote(strconv.Itoa(cfg.CPU)), observed(cpu))
	}

	memory := task.Attribute("memory")
	if s, ok := memory.AsString(); !ok || s != strconv.Itoa(cfg.Memory) {
		return fail(name, task.Address, "memory", strconv.Quote(strconv.Itoa(cfg.Memory)), observed(memory))
	}
	return pass(name)
}
