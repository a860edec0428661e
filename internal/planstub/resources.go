package planstub

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// serviceResources synthesizes the planned resources of the ecs-service
// module for the given inputs.
func serviceResources(in inputs) (string, []resource) {
	moduleAddr := "module.service_under_test"
	addr := func(kind, name string) string {
		return fmt.Sprintf("%s.%s.%s", moduleAddr, kind, name)
	}

	env := in.str("environment")
	name := in.str("service_name")
	serviceType := in.str("service_type")
	port := in.num("container_port")
	internal := serviceType == "internal"

	loadBalancers := []any{}
	registries := []any{}
	if internal {
		registries = append(registries, map[string]any{
			"registry_arn":   nil,
			"container_name": name,
		})
	} else {
		loadBalancers = append(loadBalancers, map[string]any{
			"target_group_arn": in.str("target_group_arn"),
			"container_name":   name,
			"container_port":   port,
		})
	}

	service := resource{
		Address: addr("aws_ecs_service", "this"),
		Mode:    "managed",
		Type:    "aws_ecs_service",
		Name:    "this",
		Values: map[string]any{
			"name":                               name,
			"launch_type":                        "FARGATE",
			"desired_count":                      in.num("desired_count"),
			"deployment_minimum_healthy_percent": in.num("min_healthy_percent"),
			"deployment_maximum_percent":         in.num("max_percent"),
			"load_balancer":                      loadBalancers,
			"service_registries":                 registries,
			"network_configuration": []any{
				map[string]any{
					"assign_public_ip": in.boolean("assign_public_ip"),
					"subnets":          in.strings("private_subnet_ids"),
				},
			},
			"tags": map[string]any{"environment": env},
		},
	}

	containerDefs, _ := json.Marshal([]map[string]any{
		{
			"name":      name,
			"essential": true,
			"portMappings": []map[string]any{
				{"containerPort": port, "hostPort": port, "protocol": "tcp"},
			},
			"logConfiguration": map[string]any{
				"logDriver": "awslogs",
				"options": map[string]any{
					"awslogs-group": logGroupName(env, name),
				},
			},
		},
	})

	task := resource{
		Address: addr("aws_ecs_task_definition", "this"),
		Mode:    "managed",
		Type:    "aws_ecs_task_definition",
		Name:    "this",
		Values: map[string]any{
			"family":                   fmt.Sprintf("%s-%s", name, env),
			"cpu":                      strconv.FormatInt(in.num("cpu"), 10),
			"memory":                   strconv.FormatInt(in.num("memory"), 10),
			"network_mode":             "awsvpc",
			"requires_compatibilities": []any{"FARGATE"},
			"container_definitions":    string(containerDefs),
		},
	}

	securityGroup := resource{
		Address: addr("aws_security_group", "service"),
		Mode:    "managed",
		Type:    "aws_security_group",
		Name:    "service",
		Values: map[string]any{
			"name": fmt.Sprintf("%s-%s-service", name, env),
			"ingress": []any{
				map[string]any{
					"from_port": port,
					"to_port":   port,
					"protocol":  "tcp",
				},
			},
		},
	}

	logGroup := resource{
		Address: addr("aws_cloudwatch_log_group", "this"),
		Mode:    "managed",
		Type:    "aws_cloudwatch_log_group",
		Name:    "this",
		Values: map[string]any{
			"name":              logGroupName(env, name),
			"retention_in_days": int64(30),
		},
	}

	resources := []resource{service, task, securityGroup, logGroup}

	if internal {
		resources = append(resources, resource{
			Address: addr("aws_service_discovery_service", "this"),
			Mode:    "managed",
			Type:    "aws_service_discovery_service",
			Name:    "this",
			Values: map[string]any{
				"name": name,
				"dns_config": []any{
					map[string]any{"namespace_id": in.str("discovery_namespace_id")},
				},
			},
		})
	}

	return moduleAddr, resources
}

func logGroupName(env, name string) string {
	return fmt.Sprintf("/ecs/%s/%s", env, name)
}

// networkResources synthesizes the planned resources of the vpc module for
// the given inputs.
func networkResources(in inputs) (string, []resource) {
	moduleAddr := "module.network_under_test"
	addr := func(kind, name, index string) string {
		if index == "" {
			return fmt.Sprintf("%s.%s.%s", moduleAddr, kind, name)
		}
		return fmt.Sprintf("%s.%s.%s[%s]", moduleAddr, kind, name, index)
	}

	env := in.str("environment")
	enableNAT := in.boolean("enable_nat")
	singleNAT := in.boolean("single_nat")
	publicCIDRs := in.strings("public_subnet_cidrs")
	privateCIDRs := in.strings("private_subnet_cidrs")

	resources := []resource{
		{
			Address: addr("aws_vpc", "this", ""),
			Mode:    "managed",
			Type:    "aws_vpc",
			Name:    "this",
			Values: map[string]any{
				"cidr_block":           in.str("vpc_cidr"),
				"enable_dns_support":   true,
				"enable_dns_hostnames": true,
				"tags":                 map[string]any{"environment": env},
			},
		},
		{
			Address: addr("aws_internet_gateway", "this", ""),
			Mode:    "managed",
			Type:    "aws_internet_gateway",
			Name:    "this",
			Values:  map[string]any{"tags": map[string]any{"environment": env}},
		},
	}

	for i, cidr := range publicCIDRs {
		resources = append(resources, resource{
			Address: addr("aws_subnet", "public", strconv.Itoa(i)),
			Mode:    "managed",
			Type:    "aws_subnet",
			Name:    "public",
			Values: map[string]any{
				"cidr_block":              cidr,
				"map_public_ip_on_launch": true,
			},
		})
	}
	for i, cidr := range privateCIDRs {
		resources = append(resources, resource{
			Address: addr("aws_subnet", "private", strconv.Itoa(i)),
			Mode:    "managed",
			Type:    "aws_subnet",
			Name:    "private",
			Values: map[string]any{
				"cidr_block":              cidr,
				"map_public_ip_on_launch": false,
			},
		})
	}

	resources = append(resources, resource{
		Address: addr("aws_route_table", "public", ""),
		Mode:    "managed",
		Type:    "aws_route_table",
		Name:    "public",
		Values:  map[string]any{},
	})
	resources = append(resources, resource{
		Address: addr("aws_route", "public_igw", ""),
		Mode:    "managed",
		Type:    "aws_route",
		Name:    "public_igw",
		Values:  map[string]any{"destination_cidr_block": "0.0.0.0/0"},
	})

	for i := range privateCIDRs {
		resources = append(resources, resource{
			Address: addr("aws_route_table", "private", strconv.Itoa(i)),
			Mode:    "managed",
			Type:    "aws_route_table",
			Name:    "private",
			Values:  map[string]any{},
		})
	}

	if enableNAT {
		natCount := len(publicCIDRs)
		if singleNAT {
			natCount = 1
		}
		for i := 0; i < natCount; i++ {
			resources = append(resources, resource{
				Address: addr("aws_eip", "nat", strconv.Itoa(i)),
				Mode:    "managed",
				Type:    "aws_eip",
				Name:    "nat",
				Values:  map[string]any{"domain": "vpc"},
			})
			resources = append(resources, resource{
				Address: addr("aws_nat_gateway", "this", strconv.Itoa(i)),
				Mode:    "managed",
				Type:    "aws_nat_gateway",
				Name:    "this",
				Values:  map[string]any{},
			})
		}
		for i := range privateCIDRs {
			resources = append(resources, resource{
				Address: addr("aws_route", "private_nat", strconv.Itoa(i)),
				Mode:    "managed",
				Type:    "aws_route",
				Name:    "private_nat",
				Values:  map[string]any{"destination_cidr_block": "0.0.0.0/0"},
			})
		}
	}

	return moduleAddr, resources
}
