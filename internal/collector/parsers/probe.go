package parsers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rileyhilliard/meshmap/internal/errors"
)

// BusyBox:  round-trip min/avg/max = 1.234/2.000/3.100 ms
// iputils:  rtt min/avg/max/mdev = 0.041/0.050/0.061/0.008 ms
var pingSummaryRe = regexp.MustCompile(`(?:round-trip|rtt) min/avg/max(?:/mdev)? = [\d.]+/([\d.]+)/`)

// ParsePing returns the average round-trip time in milliseconds.
// Total packet loss produces no summary line and is reported as a PARSE error.
func ParsePing(output string) (float64, error) {
	m := pingSummaryRe.FindStringSubmatch(output)
	if m == nil {
		return 0, errors.NewParse(CmdPing, lastLine(output))
	}
	avg, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.NewParse(CmdPing, m[0])
	}
	return avg, nil
}

type iperfReport struct {
	Error string `json:"error"`
	End   struct {
		SumReceived *iperfSum `json:"sum_received"`
		Sum         *iperfSum `json:"sum"`
	} `json:"end"`
}

type iperfSum struct {
	BitsPerSecond float64 `json:"bits_per_second"`
}

// ParseIperf3 parses 'iperf3 -c <host> -J' and returns the received
// throughput in Mbit/s, falling back to the UDP-style "sum" block.
func ParseIperf3(output string) (float64, error) {
	if strings.TrimSpace(output) == "" {
		return 0, errors.New(errors.ErrParse,
			"iperf3 produced no output",
			"Check iperf3 is installed on both nodes: opkg install iperf3")
	}

	var rep iperfReport
	if err := json.Unmarshal([]byte(output), &rep); err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrParse,
			"Couldn't decode iperf3 JSON output",
			"Run iperf3 -J by hand to see what it printed.")
	}
	if rep.Error != "" {
		return 0, errors.New(errors.ErrParse,
			fmt.Sprintf("iperf3 reported an error: %s", rep.Error),
			"Make sure the iperf3 server side started and the port isn't firewalled.")
	}

	switch {
	case rep.End.SumReceived != nil:
		return rep.End.SumReceived.BitsPerSecond / 1e6, nil
	case rep.End.Sum != nil:
		return rep.End.Sum.BitsPerSecond / 1e6, nil
	}
	return 0, errors.New(errors.ErrParse,
		"iperf3 output has no throughput summary",
		"Run iperf3 -J by hand to see what it printed.")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
