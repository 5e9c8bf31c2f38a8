package adapter

import (
	"fmt"
	"net"
	"strings"
)

// TargetAuto in an nmap target list stands for every local private subnet
const TargetAuto = "auto"

// virtualPrefixes are interface names used by container runtimes and overlays
var virtualPrefixes = []string{"veth", "docker", "br-", "cni", "flannel", "virbr"}

// LocalSubnets returns the private IPv4 subnets of the host's active,
// non-virtual interfaces, in interface order without duplicates
func LocalSubnets() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var subnets []string
	seen := make(map[string]bool)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || !isPrivateIPv4(ipnet.IP) {
				continue
			}
			subnet := subnetOf(ipnet)
			if !seen[subnet] {
				seen[subnet] = true
				subnets = append(subnets, subnet)
			}
		}
	}
	return subnets, nil
}

// resolveTargets replaces TargetAuto with the local subnets
func resolveTargets(targets []string, local func() ([]string, error)) ([]string, error) {
	var out []string
	for _, t := range targets {
		if !strings.EqualFold(t, TargetAuto) {
			out = append(out, t)
			continue
		}
		subnets, err := local()
		if err != nil {
			return nil, err
		}
		if len(subnets) == 0 {
			return nil, fmt.Errorf("no local private subnets found for %q target", TargetAuto)
		}
		out = append(out, subnets...)
	}
	return out, nil
}

func isVirtualInterface(name string) bool {
	for _, p := range virtualPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// isPrivateIPv4 reports RFC1918 addresses
func isPrivateIPv4(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	return ip4[0] == 10 ||
		(ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31) ||
		(ip4[0] == 192 && ip4[1] == 168)
}

func subnetOf(ipnet *net.IPNet) string {
	ones, _ := ipnet.Mask.Size()
	return fmt.Sprintf("%s/%d", ipnet.IP.To4().Mask(ipnet.Mask), ones)
}
