package parsers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rileyhilliard/meshmap/internal/util"
)

// Command names used in parse errors and as the base of the remote
// command lines below.
const (
	CmdInterfaces  = "iw dev"
	CmdStationDump = "iw dev <if> station dump"
	CmdNeighbors   = "ip neigh show"
	CmdLeases      = "cat /tmp/dhcp.leases"
	CmdPing        = "ping"
	CmdIperf3      = "iperf3"
	CmdGetent      = "getent hosts"
)

// StationDumpCommand returns the station dump command for an interface.
func StationDumpCommand(iface string) string {
	return "iw dev " + util.ShellArg(iface) + " station dump"
}

// PingCommand returns a ping command with a 1s per-reply deadline.
func PingCommand(target string, count int) string {
	return fmt.Sprintf("ping -c %d -W 1 %s", count, util.ShellArg(target))
}

// GetentCommand returns the host lookup command for an IP.
func GetentCommand(ip string) string {
	return "getent hosts " + util.ShellArg(ip)
}

// Iperf3ServerCommand starts a one-shot iperf3 server in the background.
func Iperf3ServerCommand() string {
	return "pkill iperf3; (iperf3 -s -1 > /tmp/iperf3.log 2>&1 &)"
}

// Iperf3ClientCommand runs a JSON-reporting iperf3 client against target.
func Iperf3ClientCommand(target string, d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return "iperf3 -c " + util.ShellArg(target) + " -J -t " + strconv.Itoa(secs)
}
