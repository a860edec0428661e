package plandoc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

const samplePlan = `{
  "format_version": "1.2",
  "terraform_version": "1.9.5",
  "planned_values": {
    "root_module": {
      "child_modules": [
        {
          "address": "module.service_under_test",
          "resources": [
            {
              "address": "module.service_under_test.aws_ecs_service.this",
              "mode": "managed",
              "type": "aws_ecs_service",
              "name": "this",
              "values": {
                "name": "billing-api",
                "desired_count": 3,
                "launch_type": "FARGATE",
                "deployment_minimum_healthy_percent": 50,
                "deployment_maximum_percent": 200,
                "load_balancer": [],
                "service_registries": [
                  {"registry_arn": null}
                ],
                "network_configuration": [
                  {
                    "assign_public_ip": false,
                    "subnets": ["subnet-0a1b2c3d4e5f60718", "subnet-1a1b2c3d4e5f60718"]
                  }
                ],
                "tags": {"environment": "qa"}
              }
            },
            {
              "address": "module.service_under_test.aws_ecs_task_definition.this",
              "mode": "managed",
              "type": "aws_ecs_task_definition",
              "name": "this",
              "values": {
                "family": "billing-api-qa",
                "cpu": "256",
                "memory": "512"
              }
            }
          ]
        }
      ]
    }
  }
}`

func parseSample(t *testing.T) *Document {
	t.Helper()

	doc, err := Parse([]byte(samplePlan))
	require.NoError(t, err)
	return doc
}

func TestParseFlattensChildModules(t *testing.T) {
	t.Parallel()

	doc := parseSample(t)
	require.Equal(t, "1.2", doc.FormatVersion())
	require.Equal(t, 2, doc.Len())

	services := doc.ResourcesOfType("aws_ecs_service")
	require.Len(t, services, 1)
	require.Equal(t, "module.service_under_test.aws_ecs_service.this", services[0].Address)
	require.Equal(t, "this", services[0].Name)

	_, ok := doc.ByAddress("module.service_under_test.aws_ecs_task_definition.this")
	require.True(t, ok)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"planned_values": `))
	require.Error(t, err)

	var parseErr *proberrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseRejectsDuplicateAddresses(t *testing.T) {
	t.Parallel()

	dup := `{
	  "format_version": "1.2",
	  "planned_values": {
	    "root_module": {
	      "resources": [
	        {"address": "aws_vpc.this", "type": "aws_vpc", "name": "this", "values": {}},
	        {"address": "aws_vpc.this", "type": "aws_vpc", "name": "this", "values": {}}
	      ]
	    }
	  }
	}`

	_, err := Parse([]byte(dup))
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate resource address")
}

func TestAttributePathQueries(t *testing.T) {
	t.Parallel()

	doc := parseSample(t)
	svc := doc.ResourcesOfType("aws_ecs_service")[0]

	cases := []struct {
		name   string
		path   string
		assert func(t *testing.T, v Value)
	}{
		{
			name: "scalar string",
			path: "name",
			assert: func(t *testing.T, v Value) {
				s, ok := v.AsString()
				require.True(t, ok)
				require.Equal(t, "billing-api", s)
			},
		},
		{
			name: "integer stays integer",
			path: "desired_count",
			assert: func(t *testing.T, v Value) {
				require.Equal(t, KindNumber, v.Kind())
				n, ok := v.AsInt()
				require.True(t, ok)
				require.Equal(t, int64(3), n)
			},
		},
		{
			name: "nested list of strings",
			path: "network_configuration[0].subnets",
			assert: func(t *testing.T, v Value) {
				subnets, ok := v.Strings()
				require.True(t, ok)
				require.Equal(t, []string{"subnet-0a1b2c3d4e5f60718", "subnet-1a1b2c3d4e5f60718"}, subnets)
			},
		},
		{
			name: "nested bool",
			path: "network_configuration[0].assign_public_ip",
			assert: func(t *testing.T, v Value) {
				b, ok := v.AsBool()
				require.True(t, ok)
				require.False(t, b)
			},
		},
		{
			name: "map entry",
			path: "tags.environment",
			assert: func(t *testing.T, v Value) {
				s, ok := v.AsString()
				require.True(t, ok)
				require.Equal(t, "qa", s)
			},
		},
		{
			name: "empty list is present and empty",
			path: "load_balancer",
			assert: func(t *testing.T, v Value) {
				require.Equal(t, KindList, v.Kind())
				require.Zero(t, v.Len())
			},
		},
		{
			name: "explicit null is not absent",
			path: "service_registries[0].registry_arn",
			assert: func(t *testing.T, v Value) {
				require.True(t, v.IsNull())
				require.False(t, v.IsAbsent())
			},
		},
		{
			name: "missing attribute is absent",
			path: "placement_constraints",
			assert: func(t *testing.T, v Value) {
				require.True(t, v.IsAbsent())
			},
		},
		{
			name: "index out of range is absent",
			path: "network_configuration[4].subnets",
			assert: func(t *testing.T, v Value) {
				require.True(t, v.IsAbsent())
			},
		},
		{
			name: "malformed path is absent",
			path: "network_configuration[x].subnets",
			assert: func(t *testing.T, v Value) {
				require.True(t, v.IsAbsent())
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.assert(t, svc.Attribute(tc.path))
		})
	}
}

func TestMalformedNodeDoesNotAbortDocument(t *testing.T) {
	t.Parallel()

	partial := `{
	  "format_version": "1.2",
	  "planned_values": {
	    "root_module": {
	      "resources": [
	        {"address": "aws_vpc.broken", "type": "aws_vpc", "name": "broken"},
	        {"address": "aws_vpc.ok", "type": "aws_vpc", "name": "ok", "values": {"cidr_block": "10.0.0.0/16"}}
	      ]
	    }
	  }
	}`

	doc, err := Parse([]byte(partial))
	require.NoError(t, err)

	vpcs := doc.ResourcesOfType("aws_vpc")
	require.Len(t, vpcs, 2)

	// The node without values answers Absent instead of failing.
	require.True(t, vpcs[0].Attribute("cidr_block").IsAbsent())

	cidr, ok := vpcs[1].Attribute("cidr_block").AsString()
	require.True(t, ok)
	require.Equal(t, "10.0.0.0/16", cidr)
}

func TestDocumentStructuralEquality(t *testing.T) {
	t.Parallel()

	first := parseSample(t)
	second := parseSample(t)

	a := first.ResourcesOfType("aws_ecs_service")[0]
	b := second.ResourcesOfType("aws_ecs_service")[0]

	require.Empty(t, cmp.Diff(a.Attribute("network_configuration"), b.Attribute("network_configuration")))
	require.NotEmpty(t, cmp.Diff(a.Attribute("desired_count"), b.Attribute("deployment_maximum_percent")))
}

func TestGoStringRendersMapsInKeyOrder(t *testing.T) {
	t.Parallel()

	v := fromJSON(map[string]any{
		"zone":    "a",
		"cidr":    "10.0.0.0/16",
		"nat":     true,
		"subnets": []any{"subnet-a", "subnet-b"},
	})

	want := `{cidr: "10.0.0.0/16", nat: true, subnets: ["subnet-a", "subnet-b"], zone: "a"}`
	for i := 0; i < 20; i++ {
		require.Equal(t, want, v.GoString())
	}
}
