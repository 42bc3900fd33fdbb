package mesh

import (
	"fmt"
	"strings"
	"time"
)

// Interface types reported by 'iw dev'.
const (
	IfTypeMeshPoint = "mesh point"
	IfTypeAP        = "AP"
	IfTypeManaged   = "managed"
)

// Interface is a wireless interface on a router.
type Interface struct {
	Name string
	Addr string // lowercase MAC
	Type string
	SSID string
}

// IsMesh reports whether the interface carries mesh peers rather than clients.
func (i Interface) IsMesh() bool {
	return i.Type == IfTypeMeshPoint || strings.Contains(i.Name, "mesh")
}

// Station is one entry from 'iw dev <if> station dump'.
type Station struct {
	MAC string // lowercase

	// HasSignal is false when the dump carried no signal line.
	HasSignal    bool
	SignalDBm    int
	SignalAvgDBm int

	TxBitrate          float64 // MBit/s
	RxBitrate          float64 // MBit/s
	ExpectedThroughput float64 // Mbps, mesh peers only on most drivers

	Inactive  time.Duration
	Connected time.Duration
}

// Signal is a received signal strength reading.
type Signal struct {
	DBm   int
	Valid bool
}

// NewSignal wraps a dBm reading.
func NewSignal(dbm int) Signal {
	return Signal{DBm: dbm, Valid: true}
}

// Percent maps dBm onto 0..100 linearly: -100 dBm is 0%, -50 dBm and above is 100%.
func (s Signal) Percent() int {
	if !s.Valid {
		return 0
	}
	p := 2 * (s.DBm + 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// String formats as "-55 dBm (90%)", or "?" when unknown.
func (s Signal) String() string {
	if !s.Valid {
		return "?"
	}
	return fmt.Sprintf("%d dBm (%d%%)", s.DBm, s.Percent())
}

// Signal returns the station's signal as a Signal value.
func (st Station) Signal() Signal {
	if !st.HasSignal {
		return Signal{}
	}
	return NewSignal(st.SignalDBm)
}

// ThroughputSource records where a link's throughput figure came from.
type ThroughputSource string

const (
	ThroughputNone     ThroughputSource = ""
	ThroughputBitrate  ThroughputSource = "bitrate"  // negotiated tx bitrate
	ThroughputExpected ThroughputSource = "expected" // driver's expected throughput
	ThroughputIperf3   ThroughputSource = "iperf3"   // measured
)

// Throughput returns the best passive throughput estimate for the station:
// the driver's expected throughput when reported, otherwise the tx bitrate.
func (st Station) Throughput() (float64, ThroughputSource) {
	if st.ExpectedThroughput > 0 {
		return st.ExpectedThroughput, ThroughputExpected
	}
	if st.TxBitrate > 0 {
		return st.TxBitrate, ThroughputBitrate
	}
	return 0, ThroughputNone
}
