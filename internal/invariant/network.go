package invariant

import (
	"fmt"
	"strconv"

	"github.com/google/go-cmp/cmp"

	"github.com/alexisbeaulieu97/terraprobe/internal/genconfig"
	"github.com/alexisbeaulieu97/terraprobe/internal/plandoc"
)

// NetworkChecks returns the invariants evaluated against every generated
// VPC configuration.
func NetworkChecks() []NetworkCheck {
	return []NetworkCheck{
		{Name: "network_single_vpc_cidr", Run: checkVPC},
		{Name: "network_subnet_tiers", Run: checkSubnetTiers},
		{Name: "network_public_ip_mapping", Run: checkPublicIPMapping},
		{Name: "network_nat_gateway_count", Run: checkNATGatewayCount},
		{Name: "network_private_default_route", Run: checkPrivateDefaultRoute},
		{Name: "network_public_default_route", Run: checkPublicDefaultRoute},
	}
}

const defaultRoute = "0.0.0.0/0"

func checkVPC(cfg genconfig.NetworkConfig, doc *plandoc.Document) Result {
	const name = "network_single_vpc_cidr"

	vpcs := doc.ResourcesOfType("aws_vpc")
	if len(vpcs) != 1 {
		return fail(name, "", "", "exactly 1 aws_vpc resource", strconv.Itoa(len(vpcs)))
	}

	cidr := vpcs[0].Attribute("cidr_block")
	if s, ok := cidr.AsString(); !ok || s != cfg.VPCCIDR {
		return fail(name, vpcs[0].Address, "cidr_block", strconv.Quote(cfg.VPCCIDR), observed(cidr))
	}
	return pass(name)
}

func subnetCIDRs(resources []*plandoc.Resource) []string {
	out := make([]string, 0, len(resources))
	for _, subnet := range resources {
		if s, ok := subnet.Attribute("cidr_block").AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// checkSubnetTiers asserts subnet-per-AZ cardinality and that the input CIDR
// lists propagate element-for-element, in order, into each tier.
func checkSubnetTiers(cfg genconfig.NetworkConfig, doc *plandoc.Document) Result {
	const name = "network_subnet_tiers"

	public := doc.ResourcesNamed("aws_subnet", "public")
	if len(public) != cfg.AZCount {
		return fail(name, "", "aws_subnet.public", fmt.Sprintf("%d public subnets", cfg.AZCount), strconv.Itoa(len(public)))
	}
	private := doc.ResourcesNamed("aws_subnet", "private")
	if len(private) != cfg.AZCount {
		return fail(name, "", "aws_subnet.private", fmt.Sprintf("%d private subnets", cfg.AZCount), strconv.Itoa(len(private)))
	}

	if diff := cmp.Diff(cfg.PublicSubnetCIDRs, subnetCIDRs(public)); diff != "" {
		res := fail(name, "", "aws_subnet.public.cidr_block", fmt.Sprintf("%v", cfg.PublicSubnetCIDRs), fmt.Sprintf("%v", subnetCIDRs(public)))
		res.Detail = diff
		return res
	}
	if diff := cmp.Diff(cfg.PrivateSubnetCIDRs, subnetCIDRs(private)); diff != "" {
		res := fail(name, "", "aws_subnet.private.cidr_block", fmt.Sprintf("%v", cfg.PrivateSubnetCIDRs), fmt.Sprintf("%v", subnetCIDRs(private)))
		res.Detail = diff
		return res
	}

	return pass(name)
}

func checkPublicIPMapping(cfg genconfig.NetworkConfig, doc *plandoc.Document) Result {
	const name = "network_public_ip_mapping"

	for _, subnet := range doc.ResourcesNamed("aws_subnet", "public") {
		mapped := subnet.Attribute("map_public_ip_on_launch")
		if b, ok := mapped.AsBool(); !ok || !b {
			return fail(name, subnet.Address, "map_public_ip_on_launch", "true", observed(mapped))
		}
	}
	for _, subnet := range doc.ResourcesNamed("aws_subnet", "private") {
		mapped := subnet.Attribute("map_public_ip_on_launch")
		if b, ok := mapped.AsBool(); !ok || b {
			return fail(name, subnet.Address, "map_public_ip_on_launch", "false", observed(mapped))
		}
	}
	return pass(name)
}

func checkNATGatewayCount(cfg genconfig.NetworkConfig, doc *plandoc.Document) Result {
	const name = "network_nat_gateway_count"

	want := 0
	if cfg.EnableNAT {
		want = cfg.AZCount
		if cfg.SingleNAT {
			want = 1
		}
	}

	gateways := doc.ResourcesOfType("aws_nat_gateway")
	if len(gateways) != want {
		return fail(name, "", "aws_nat_gateway", fmt.Sprintf("%d NAT gateways", want), strconv.Itoa(len(gateways)))
	}
	return pass(name)
}

// checkPrivateDefaultRoute asserts route exclusivity for the private tier:
// with NAT enabled every private route table gets a default route through a
// NAT gateway and none through the internet gateway; with NAT disabled the
// private tier has no default route at all.
func checkPrivateDefaultRoute(cfg genconfig.NetworkConfig, doc *plandoc.Document) Result {
	const name = "network_private_default_route"

	natRoutes := doc.ResourcesNamed("aws_route", "private_nat")
	igwRoutes := doc.ResourcesNamed("aws_route", "private_igw")

	if len(igwRoutes) != 0 {
		return fail(name, igwRoutes[0].Address, "aws_route.private_igw", "no internet gateway default routes on private route tables", strconv.Itoa(len(igwRoutes)))
	}

	if !cfg.EnableNAT {
		if len(natRoutes) != 0 {
			return fail(name, natRoutes[0].Address, "aws_route.private_nat", "no NAT routes when NAT is disabled", strconv.Itoa(len(natRoutes)))
		}
		return pass(name)
	}

	if len(natRoutes) != cfg.AZCount {
		return fail(name, "", "aws_route.private_nat", fmt.Sprintf("%d NAT default routes", cfg.AZCount), strconv.Itoa(len(natRoutes)))
	}
	for _, route := range natRoutes {
		dest := route.Attribute("destination_cidr_block")
		if s, ok := dest.AsString(); !ok || s != defaultRoute {
			return fail(name, route.Address, "destination_cidr_block", strconv.Quote(defaultRoute), observed(dest))
		}
	}
	return pass(name)
}

func checkPublicDefaultRoute(_ genconfig.NetworkConfig, doc *plandoc.Document) Result {
	const name = "network_public_default_route"

	igws := doc.ResourcesOfType("aws_internet_gateway")
	if len(igws) != 1 {
		return fail(name, "", "aws_internet_gateway", "exactly 1 internet gateway", strconv.Itoa(len(igws)))
	}

	routes := doc.ResourcesNamed("aws_route", "public_igw")
	if len(routes) != 1 {
		return fail(name, "", "aws_route.public_igw", "exactly 1 public default route", strconv.Itoa(len(routes)))
	}

	dest := routes[0].Attribute("destination_cidr_block")
	if s, ok := dest.AsString(); !ok || s != defaultRoute {
		return fail(name, routes[0].Address, "destination_cidr_block", strconv.Quote(defaultRoute), observed(dest))
	}

	natRoutes := doc.ResourcesNamed("aws_route", "public_nat")
	if len(natRoutes) != 0 {
		return fail(name, natRoutes[0].Address, "aws_route.public_nat", "no NAT default routes on public route tables", strconv.Itoa(len(natRoutes)))
	}

	return pass(name)
}
