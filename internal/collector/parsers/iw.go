package parsers

import (
	"bufio"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/mesh"
)

var (
	// signal:  	-55 [-57, -58] dBm
	signalRe = regexp.MustCompile(`^signal:\s*(-?\d+)`)
	// signal avg:	-56 [-58, -59] dBm
	signalAvgRe = regexp.MustCompile(`^signal avg:\s*(-?\d+)`)
	// tx bitrate:	300.0 MBit/s VHT-MCS 7 80MHz short GI VHT-NSS 1
	bitrateRe = regexp.MustCompile(`^([rt]x) bitrate:\s*([\d.]+)\s*MBit/s`)
	// expected throughput:	65.222Mbps
	expectedRe = regexp.MustCompile(`^expected throughput:\s*([\d.]+)\s*Mbps`)
	// inactive time:	10 ms
	inactiveRe = regexp.MustCompile(`^inactive time:\s*(\d+)\s*ms`)
	// connected time:	3600 seconds
	connectedRe = regexp.MustCompile(`^connected time:\s*(\d+)\s*seconds`)
)

// ParseInterfaces parses 'iw dev' into the node's wireless interfaces.
//
//	phy#1
//		Interface phy1-mesh0
//			addr 94:83:c4:aa:bb:01
//			type mesh point
func ParseInterfaces(output string) ([]mesh.Interface, error) {
	var ifaces []mesh.Interface
	var cur *mesh.Interface
	sawContent := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sawContent = true

		key, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)

		// phy headers and wdev-only blocks (P2P-device, NAN) end the
		// current interface; their addr and type lines belong to them.
		if strings.HasPrefix(key, "phy#") || key == "Unnamed/non-netdev" {
			cur = nil
			continue
		}

		switch key {
		case "Interface":
			if value == "" {
				return nil, errors.NewParse(CmdInterfaces, line)
			}
			ifaces = append(ifaces, mesh.Interface{Name: value})
			cur = &ifaces[len(ifaces)-1]
		case "addr":
			if cur == nil {
				continue
			}
			mac, err := net.ParseMAC(value)
			if err != nil {
				return nil, errors.NewParse(CmdInterfaces, line)
			}
			cur.Addr = mac.String()
		case "type":
			if cur != nil {
				cur.Type = value
			}
		case "ssid":
			if cur != nil {
				cur.SSID = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse, "Failed to read 'iw dev' output", "")
	}

	if sawContent && len(ifaces) == 0 {
		return nil, errors.NewParse(CmdInterfaces, firstLine(output))
	}
	return ifaces, nil
}

// ParseStationDump parses 'iw dev <if> station dump'.
//
//	Station 4a:1f:2b:3c:4d:5e (on phy0-mesh0)
//		signal:  	-55 [-57, -58] dBm
//		tx bitrate:	300.0 MBit/s VHT-MCS 7 80MHz short GI VHT-NSS 1
func ParseStationDump(output string) ([]mesh.Station, error) {
	var stations []mesh.Station
	var cur *mesh.Station

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "Station ") {
			fields := strings.Fields(line)
			mac, err := net.ParseMAC(fields[1])
			if err != nil {
				return nil, errors.NewParse(CmdStationDump, line)
			}
			stations = append(stations, mesh.Station{MAC: mac.String()})
			cur = &stations[len(stations)-1]
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "signal avg:"):
			m := signalAvgRe.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.NewParse(CmdStationDump, line)
			}
			cur.SignalAvgDBm, _ = strconv.Atoi(m[1])
		case strings.HasPrefix(line, "signal:"):
			m := signalRe.FindStringSubmatch(line)
			if m == nil {
				return nil, errors.NewParse(CmdStationDump, line)
			}
			cur.SignalDBm, _ = strconv.Atoi(m[1])
			cur.HasSignal = true
		case strings.Contains(line, " bitrate:"):
			// Legacy drivers print "tx bitrate: unknown"; leave zero.
			if m := bitrateRe.FindStringSubmatch(line); m != nil {
				v, err := strconv.ParseFloat(m[2], 64)
				if err != nil {
					return nil, errors.NewParse(CmdStationDump, line)
				}
				if m[1] == "tx" {
					cur.TxBitrate = v
				} else {
					cur.RxBitrate = v
				}
			}
		case strings.HasPrefix(line, "expected throughput:"):
			if m := expectedRe.FindStringSubmatch(line); m != nil {
				cur.ExpectedThroughput, _ = strconv.ParseFloat(m[1], 64)
			}
		case strings.HasPrefix(line, "inactive time:"):
			if m := inactiveRe.FindStringSubmatch(line); m != nil {
				ms, _ := strconv.Atoi(m[1])
				cur.Inactive = time.Duration(ms) * time.Millisecond
			}
		case strings.HasPrefix(line, "connected time:"):
			if m := connectedRe.FindStringSubmatch(line); m != nil {
				s, _ := strconv.Atoi(m[1])
				cur.Connected = time.Duration(s) * time.Second
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse, "Failed to read station dump", "")
	}

	return stations, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
