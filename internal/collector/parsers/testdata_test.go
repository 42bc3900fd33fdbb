package parsers

// Sample output captured from OpenWrt 24.10 routers (addresses changed).

const iwDevSample = `phy#1
	Interface phy1-mesh0
		ifindex 12
		wdev 0x100000003
		addr 94:83:C4:AA:BB:01
		type mesh point
		channel 36 (5180 MHz), width: 80 MHz, center1: 5210 MHz
		txpower 23.00 dBm
	Interface phy1-ap0
		ifindex 11
		wdev 0x100000002
		addr 94:83:c4:aa:bb:02
		ssid HomeNet
		type AP
		channel 36 (5180 MHz), width: 80 MHz, center1: 5210 MHz
		txpower 23.00 dBm
phy#0
	Interface phy0-ap0
		ifindex 10
		wdev 0x2
		addr 94:83:c4:aa:bb:00
		ssid HomeNet
		type AP
		channel 1 (2412 MHz), width: 20 MHz, center1: 2412 MHz
		txpower 20.00 dBm
`

// A radio with a wdev-only P2P device after the mesh interface.
const iwDevP2PSample = `phy#1
	Unnamed/non-netdev interface
		wdev 0x100000003
		addr 02:11:22:33:44:56
		type P2P-device
	Interface phy1-mesh0
		ifindex 12
		wdev 0x100000002
		addr 94:83:c4:aa:bb:01
		type mesh point
		channel 36 (5180 MHz), width: 80 MHz, center1: 5210 MHz
	Unnamed/non-netdev interface
		wdev 0x100000001
		addr 02:11:22:33:44:55
		type P2P-device
phy#0
	Interface phy0-ap0
		ifindex 10
		addr 94:83:c4:aa:bb:00
		type AP
`

const meshStationDumpSample = `Station 4a:1f:2b:3c:4d:5e (on phy1-mesh0)
	inactive time:	10 ms
	rx bytes:	123456789
	rx packets:	834120
	tx bytes:	98765432
	tx packets:	612004
	tx retries:	1200
	tx failed:	3
	rx drop misc:	12
	signal:  	-55 [-57, -58] dBm
	signal avg:	-56 [-58, -59] dBm
	Toffset:	18446744073709 us
	tx bitrate:	300.0 MBit/s VHT-MCS 7 80MHz short GI VHT-NSS 1
	tx duration:	0 us
	rx bitrate:	270.0 MBit/s VHT-MCS 6 80MHz VHT-NSS 1
	rx duration:	0 us
	expected throughput:	65.222Mbps
	mesh llid:	0
	mesh plid:	0
	mesh plink:	ESTAB
	mesh airtime link metric: 111
	mesh connected to gate:	yes
	mesh connected to auth server:	no
	mesh local PS mode:	ACTIVE
	mesh peer PS mode:	ACTIVE
	mesh non-peer PS mode:	ACTIVE
	authorized:	yes
	authenticated:	yes
	associated:	yes
	preamble:	long
	WMM/WME:	yes
	MFP:		yes
	TDLS peer:	no
	DTIM period:	2
	beacon interval:100
	connected time:	3600 seconds
	associated at [boottime]:	52.341s
	associated at:	1730000000123 ms
	current time:	1730003600123 ms
Station 4a:1f:2b:3c:4d:6f (on phy1-mesh0)
	inactive time:	250 ms
	signal:  	-71 dBm
	signal avg:	-72 dBm
	tx bitrate:	58.5 MBit/s VHT-MCS 2 80MHz VHT-NSS 1
	rx bitrate:	6.0 MBit/s
	mesh plink:	ESTAB
	connected time:	120 seconds
`

const apStationDumpSample = `Station a4:83:e7:11:22:33 (on phy0-ap0)
	inactive time:	1500 ms
	rx bytes:	45231
	signal:  	-48 [-50, -51] dBm
	signal avg:	-49 [-51, -52] dBm
	tx bitrate:	72.2 MBit/s MCS 7 short GI
	rx bitrate:	65.0 MBit/s MCS 6
	connected time:	842 seconds
Station de:ad:be:ef:00:01 (on phy0-ap0)
	inactive time:	30 ms
	signal:  	-80 dBm
	tx bitrate:	unknown
	connected time:	5 seconds
Station 02:11:22:33:44:55 (on phy0-ap0)
	inactive time:	0 ms
	connected time:	1 seconds
`

const ipNeighSample = `192.168.1.23 dev br-lan lladdr A4:83:E7:11:22:33 REACHABLE
192.168.1.24 dev br-lan lladdr de:ad:be:ef:00:01 STALE
192.168.1.50 dev br-lan  FAILED
fe80::a683:e7ff:fe11:2233 dev br-lan lladdr a4:83:e7:11:22:33 STALE
192.168.1.2 dev br-lan lladdr 94:83:c4:aa:cc:02 DELAY
`

const dhcpLeasesSample = `1730040000 a4:83:e7:11:22:33 192.168.1.23 laptop 01:a4:83:e7:11:22:33
1730040100 de:ad:be:ef:00:01 192.168.1.24 * 01:de:ad:be:ef:00:01
1730040200 11:22:33:44:55:66 192.168.1.60 printer *
`

const busyboxPingSample = `PING 192.168.1.2 (192.168.1.2): 56 data bytes
64 bytes from 192.168.1.2: seq=0 ttl=64 time=1.812 ms
64 bytes from 192.168.1.2: seq=1 ttl=64 time=2.104 ms
64 bytes from 192.168.1.2: seq=2 ttl=64 time=2.084 ms

--- 192.168.1.2 ping statistics ---
3 packets transmitted, 3 packets received, 0% packet loss
round-trip min/avg/max = 1.812/2.000/2.104 ms
`

const iputilsPingSample = `PING 10.0.0.2 (10.0.0.2) 56(84) bytes of data.
64 bytes from 10.0.0.2: icmp_seq=1 ttl=64 time=0.041 ms

--- 10.0.0.2 ping statistics ---
1 packets transmitted, 1 received, 0% packet loss, time 0ms
rtt min/avg/max/mdev = 0.041/0.050/0.061/0.008 ms
`

const lostPingSample = `PING 192.168.1.9 (192.168.1.9): 56 data bytes

--- 192.168.1.9 ping statistics ---
3 packets transmitted, 0 packets received, 100% packet loss
`

const iperf3TCPSample = `{
	"start": {"connected": [{"socket": 5}]},
	"end": {
		"sum_sent": {"bits_per_second": 312500000.0},
		"sum_received": {"bits_per_second": 298400000.0}
	}
}`

const iperf3UDPSample = `{"end": {"sum": {"bits_per_second": 50000000}}}`

const iperf3ErrorSample = `{"start": {}, "intervals": [], "end": {}, "error": "unable to connect to server: Connection refused"}`
