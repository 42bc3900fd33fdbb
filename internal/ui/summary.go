package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/meshmap/internal/util"
)

// NodeStatus is one line of the post-collection summary.
type NodeStatus struct {
	Name     string
	Address  string
	OK       bool
	Peers    int
	Clients  int
	Duration time.Duration
	// Detail is the one-line failure reason for nodes that failed.
	Detail string
}

// RenderNodeSummary renders one line per node:
//
//	✓ ap-living   192.168.1.1   2 links  5 clients  0.4s
//	✗ ap-garage   192.168.1.3   Can't reach 'ap-garage' at 192.168.1.3:22
func RenderNodeSummary(nodes []NodeStatus) string {
	if len(nodes) == 0 {
		return ""
	}

	nameWidth, addrWidth := 0, 0
	for _, n := range nodes {
		nameWidth = max(nameWidth, len(n.Name))
		addrWidth = max(addrWidth, len(n.Address))
	}

	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString("  ")
		if n.OK {
			sb.WriteString(SuccessStyle().Render(SymbolSuccess))
		} else {
			sb.WriteString(ErrorStyle().Render(SymbolFail))
		}
		sb.WriteString(" ")
		sb.WriteString(padRight(n.Name, nameWidth+2))
		sb.WriteString(MutedStyle().Render(padRight(n.Address, addrWidth+2)))

		if !n.OK {
			sb.WriteString(ErrorStyle().Render(n.Detail))
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(padRight(plural(n.Peers, "link", "links"), 10))
		sb.WriteString(padRight(plural(n.Clients, "client", "clients"), 12))
		sb.WriteString(MutedStyle().Render(formatDuration(n.Duration)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderCollectionTotals renders the closing line of the summary, e.g.
// "2 of 3 nodes reachable".
func RenderCollectionTotals(nodes []NodeStatus) string {
	ok := 0
	for _, n := range nodes {
		if n.OK {
			ok++
		}
	}
	msg := fmt.Sprintf("%d of %s reachable", ok, plural(len(nodes), "node", "nodes"))
	switch {
	case ok == len(nodes):
		return SuccessStyle().Render(msg)
	case ok == 0:
		return ErrorStyle().Render(msg)
	default:
		return WarningStyle().Render(msg)
	}
}

func plural(n int, one, many string) string {
	return fmt.Sprintf("%d %s", n, util.Pluralize(n, one, many))
}
