package genconfig

import (
	"math/rand"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func testParameters(t *testing.T) *gopter.TestParameters {
	t.Helper()

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	return params
}

func TestServiceDrawProperties(t *testing.T) {
	t.Parallel()

	properties := gopter.NewProperties(testParameters(t))

	properties.Property("every drawn service config is valid", prop.ForAll(
		func(cfg ServiceConfig) bool {
			return cfg.Validate() == nil
		},
		ServiceGen(),
	))

	properties.Property("exposure type decides conditional fields", prop.ForAll(
		func(cfg ServiceConfig) bool {
			switch cfg.ServiceType {
			case ServicePublic:
				return cfg.TargetGroupARN != "" && cfg.DiscoveryNamespaceID == ""
			case ServiceInternal:
				return cfg.TargetGroupARN == "" && cfg.DiscoveryNamespaceID != "" && !cfg.AssignPublicIP
			default:
				return false
			}
		},
		ServiceGen(),
	))

	properties.Property("memory always pairs with cpu", prop.ForAll(
		func(cfg ServiceConfig) bool {
			for _, mem := range fargateMemory[cfg.CPU] {
				if mem == cfg.Memory {
					return true
				}
			}
			return false
		},
		ServiceGen(),
	))

	properties.Property("same seed reproduces the same service config", prop.ForAll(
		func(seed int64) bool {
			first := DrawService(rand.New(rand.NewSource(seed)))
			second := DrawService(rand.New(rand.NewSource(seed)))
			return cmp.Diff(first, second) == ""
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestNetworkDrawProperties(t *testing.T) {
	t.Parallel()

	properties := gopter.NewProperties(testParameters(t))

	properties.Property("every drawn network config is valid", prop.ForAll(
		func(cfg NetworkConfig) bool {
			return cfg.Validate() == nil
		},
		NetworkGen(),
	))

	properties.Property("subnets are carved from the VPC block", prop.ForAll(
		func(cfg NetworkConfig) bool {
			_, vpcNet, err := net.ParseCIDR(cfg.VPCCIDR)
			if err != nil {
				return false
			}
			for _, cidr := range append(append([]string{}, cfg.PublicSubnetCIDRs...), cfg.PrivateSubnetCIDRs...) {
				ip, _, err := net.ParseCIDR(cidr)
				if err != nil || !vpcNet.Contains(ip) {
					return false
				}
			}
			return true
		},
		NetworkGen(),
	))

	properties.Property("subnet CIDRs never collide", prop.ForAll(
		func(cfg NetworkConfig) bool {
			seen := make(map[string]bool)
			for _, cidr := range append(append([]string{}, cfg.PublicSubnetCIDRs...), cfg.PrivateSubnetCIDRs...) {
				if seen[cidr] {
					return false
				}
				seen[cidr] = true
			}
			return true
		},
		NetworkGen(),
	))

	properties.Property("single NAT implies NAT enabled", prop.ForAll(
		func(cfg NetworkConfig) bool {
			return !cfg.SingleNAT || cfg.EnableNAT
		},
		NetworkGen(),
	))

	properties.TestingRun(t)
}

func TestValidateRejectsBrokenConditionalFields(t *testing.T) {
	t.Parallel()

	base := DrawService(rand.New(rand.NewSource(11)))

	cases := []struct {
		name   string
		mutate func(cfg *ServiceConfig)
		field  string
	}{
		{
			name: "public without target group",
			mutate: func(cfg *ServiceConfig) {
				cfg.ServiceType = ServicePublic
				cfg.TargetGroupARN = ""
				cfg.DiscoveryNamespaceID = ""
			},
			field: "target_group_arn",
		},
		{
			name: "internal with target group",
			mutate: func(cfg *ServiceConfig) {
				cfg.ServiceType = ServiceInternal
				cfg.TargetGroupARN = "arn:aws:elasticloadbalancing:us-east-1:123456789012:targetgroup/tg-x/0123456789abcdef"
				cfg.DiscoveryNamespaceID = "ns-0123456789abcdef"
			},
			field: "target_group_arn",
		},
		{
			name: "internal with public address",
			mutate: func(cfg *ServiceConfig) {
				cfg.ServiceType = ServiceInternal
				cfg.TargetGroupARN = ""
				cfg.DiscoveryNamespaceID = "ns-0123456789abcdef"
				cfg.AssignPublicIP = true
			},
			field: "assign_public_ip",
		},
		{
			name: "memory outside cpu pairing",
			mutate: func(cfg *ServiceConfig) {
				cfg.CPU = 256
				cfg.Memory = 16384
			},
			field: "memory",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			cfg.PrivateSubnetIDs = append([]string(nil), base.PrivateSubnetIDs...)
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestNetworkValidateRejectsMismatchedTiers(t *testing.T) {
	t.Parallel()

	cfg := DrawNetwork(rand.New(rand.NewSource(7)))
	cfg.PrivateSubnetCIDRs = cfg.PrivateSubnetCIDRs[:1]

	err := cfg.Validate()
	require.Error(t, err)

	nat := DrawNetwork(rand.New(rand.NewSource(9)))
	nat.EnableNAT = false
	nat.SingleNAT = true
	require.Error(t, nat.Validate())
}
