package genconfig

import (
	"fmt"
	"math/rand"
)

// DrawService produces a fully-populated ServiceConfig from the supplied
// random source. Draws are pure and reproducible: the same source state
// always yields the same configuration.
func DrawService(r *rand.Rand) ServiceConfig {
	cfg := ServiceConfig{
		Environment:       pick(r, Environments),
		ServiceName:       drawServiceName(r),
		ContainerPort:     between(r, 1024, 65535),
		DesiredCount:      between(r, 1, 10),
		MinHealthyPercent: between(r, 0, 200),
		MaxPercent:        between(r, 100, 400),
		PrivateSubnetIDs:  drawSubnetIDs(r, between(r, 2, 3)),
	}

	cfg.CPU = pick(r, []int{256, 512, 1024, 2048})
	cfg.Memory = pick(r, fargateMemory[cfg.CPU])

	// The exposure type decides which of the mutually exclusive identifier
	// fields is populated; the other must stay empty, not empty-string-as-set.
	if r.Intn(2) == 0 {
		cfg.ServiceType = ServicePublic
		cfg.TargetGroupARN = drawTargetGroupARN(r)
		cfg.AssignPublicIP = r.Intn(2) == 0
	} else {
		cfg.ServiceType = ServiceInternal
		cfg.DiscoveryNamespaceID = drawNamespaceID(r)
		cfg.AssignPublicIP = false
	}

	return cfg
}

// DrawNetwork produces a fully-populated NetworkConfig. Subnet CIDRs are
// non-overlapping /20 blocks carved from the drawn VPC /16, public tier
// first, so every draw satisfies the module's addressing constraints.
func DrawNetwork(r *rand.Rand) NetworkConfig {
	second := r.Intn(255)
	azCount := between(r, 2, 3)

	cfg := NetworkConfig{
		Environment: pick(r, Environments),
		VPCCIDR:     fmt.Sprintf("10.%d.0.0/16", second),
		AZCount:     azCount,
		EnableNAT:   r.Intn(4) != 0,
	}
	if cfg.EnableNAT {
		cfg.SingleNAT = r.Intn(2) == 0
	}

	for i := 0; i < azCount; i++ {
		cfg.PublicSubnetCIDRs = append(cfg.PublicSubnetCIDRs, fmt.Sprintf("10.%d.%d.0/20", second, i*16))
	}
	for i := 0; i < azCount; i++ {
		cfg.PrivateSubnetCIDRs = append(cfg.PrivateSubnetCIDRs, fmt.Sprintf("10.%d.%d.0/20", second, (azCount+i)*16))
	}

	return cfg
}

const (
	lowerAlpha    = "abcdefghijklmnopqrstuvwxyz"
	lowerAlphaNum = "abcdefghijklmnopqrstuvwxyz0123456789"
	hexDigits     = "0123456789abcdef"
)

var serviceWords = []string{
	"billing", "catalog", "checkout", "identity", "inventory",
	"ledger", "metrics", "orders", "payments", "search",
}

var regions = []string{"us-east-1", "us-west-2", "eu-west-1"}

func drawServiceName(r *rand.Rand) string {
	name := pick(r, serviceWords) + "-"
	for i := 0; i < 4; i++ {
		name += string(lowerAlphaNum[r.Intn(len(lowerAlphaNum))])
	}
	return name
}

func drawSubnetIDs(r *rand.Rand, count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = "subnet-" + randomString(r, hexDigits, 17)
	}
	return ids
}

func drawTargetGroupARN(r *rand.Rand) string {
	return fmt.Sprintf("arn:aws:elasticloadbalancing:%s:%012d:targetgroup/%s/%s",
		pick(r, regions),
		r.Int63n(1e12),
		"tg-"+randomString(r, lowerAlphaNum, 8),
		randomString(r, hexDigits, 16))
}

func drawNamespaceID(r *rand.Rand) string {
	return "ns-" + randomString(r, lowerAlphaNum, 16)
}

func randomString(r *rand.Rand, alphabet string, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(out)
}

// between returns a uniform draw from the closed interval [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

func pick[T any](r *rand.Rand, values []T) T {
	return values[r.Intn(len(values))]
}
