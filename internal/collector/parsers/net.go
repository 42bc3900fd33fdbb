package parsers

import (
	"bufio"
	"net"
	"strings"
)

// ParseNeighbors parses 'ip neigh show' into a MAC -> IPv4 map.
// IPv6 entries and entries without a link-layer address are skipped.
//
//	192.168.1.23 dev br-lan lladdr a4:83:e7:11:22:33 REACHABLE
func ParseNeighbors(output string) map[string]string {
	out := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		ip := net.ParseIP(fields[0])
		if ip == nil || ip.To4() == nil {
			continue
		}
		for i := 1; i < len(fields)-1; i++ {
			if fields[i] != "lladdr" {
				continue
			}
			mac, err := net.ParseMAC(fields[i+1])
			if err != nil {
				break
			}
			out[mac.String()] = ip.String()
			break
		}
	}
	return out
}

// ParseLeases parses a dnsmasq lease file (/tmp/dhcp.leases) into an
// IPv4 -> hostname map. Leases without a hostname ("*") are skipped.
//
//	1730000000 a4:83:e7:11:22:33 192.168.1.23 laptop 01:a4:83:e7:11:22:33
func ParseLeases(output string) map[string]string {
	out := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if net.ParseIP(fields[2]) == nil || fields[3] == "*" {
			continue
		}
		out[fields[2]] = fields[3]
	}
	return out
}

// ParseGetent returns the first hostname from 'getent hosts <ip>',
// or "" when the address didn't resolve.
//
//	192.168.1.23    laptop.lan  laptop
func ParseGetent(output string) string {
	fields := strings.Fields(firstLine(output))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
