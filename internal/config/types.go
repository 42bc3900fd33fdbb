package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultOutputFile is where the diagram is written when nothing else is configured.
const DefaultOutputFile = "mesh_network_with_links.pdf"

// Config represents the complete meshmap.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Nodes is the static mesh inventory. Order is preserved and is the
	// order nodes are visited in.
	Nodes []Node `yaml:"nodes" mapstructure:"nodes"`

	// Timeout bounds the SSH dial and each remote command.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// InsecureHostKey skips known_hosts verification. Freshly flashed
	// routers regenerate their host keys, which makes this handy on a bench.
	InsecureHostKey bool `yaml:"insecure_host_key" mapstructure:"insecure_host_key"`

	// ResolveHostnames asks a reachable node to resolve client IPs
	// that have no DHCP lease name.
	ResolveHostnames bool `yaml:"resolve_hostnames" mapstructure:"resolve_hostnames"`

	Probe  ProbeConfig  `yaml:"probe" mapstructure:"probe"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// Node is a mesh router and the credentials used to reach it.
type Node struct {
	// Name labels the node in the diagram. Defaults to Address.
	Name string `yaml:"name" mapstructure:"name"`

	// Address is a hostname, IP, or ~/.ssh/config alias.
	Address string `yaml:"address" mapstructure:"address"`

	User string `yaml:"user" mapstructure:"user"`

	// Password enables password auth. Leave empty for agent or key auth.
	Password string `yaml:"password,omitempty" mapstructure:"password"`

	// Port overrides the SSH port. Zero means 22 or whatever ~/.ssh/config says.
	Port int `yaml:"port,omitempty" mapstructure:"port"`

	IdentityFile string `yaml:"identity_file,omitempty" mapstructure:"identity_file"`
}

// DisplayName returns the name used for the node in output.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Address
}

// ProbeConfig controls the optional active measurements on mesh links.
type ProbeConfig struct {
	// Ping measures latency to every mesh peer with ping.
	Ping bool `yaml:"ping" mapstructure:"ping"`

	// PingCount is the number of echo requests per peer.
	PingCount int `yaml:"ping_count" mapstructure:"ping_count"`

	// Iperf3 runs an iperf3 benchmark for each mesh pair. Needs
	// 'opkg install iperf3' on every node.
	Iperf3 bool `yaml:"iperf3" mapstructure:"iperf3"`

	// Iperf3Duration is the length of each iperf3 run.
	Iperf3Duration time.Duration `yaml:"iperf3_duration" mapstructure:"iperf3_duration"`
}

// OutputConfig controls the rendered diagram.
type OutputConfig struct {
	// File is the output path. The extension picks the format:
	// .png, .svg, .pdf, .jpg, .tif, .eps, or .dot for Graphviz.
	File string `yaml:"file" mapstructure:"file"`

	// Width and Height accept lengths like "12in", "30cm", or "800pt".
	Width  string `yaml:"width" mapstructure:"width"`
	Height string `yaml:"height" mapstructure:"height"`

	Title string `yaml:"title" mapstructure:"title"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:          CurrentConfigVersion,
		Nodes:            []Node{},
		Timeout:          10 * time.Second,
		InsecureHostKey:  false,
		ResolveHostnames: true,
		Probe: ProbeConfig{
			Ping:           true,
			PingCount:      3,
			Iperf3:         false,
			Iperf3Duration: 5 * time.Second,
		},
		Output: OutputConfig{
			File:   DefaultOutputFile,
			Width:  "12in",
			Height: "8in",
			Title:  "Mesh network with clients and link quality",
		},
	}
}
