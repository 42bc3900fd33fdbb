package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/logger"
	"github.com/rileyhilliard/meshmap/internal/mesh"
	sshtesting "github.com/rileyhilliard/meshmap/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apAInterfaces = `phy#1
	Interface phy1-mesh0
		addr 02:00:00:00:0a:01
		type mesh point
phy#0
	Interface phy0-ap0
		addr 02:00:00:00:0a:00
		type AP
`
	apBInterfaces = `phy#1
	Interface phy1-mesh0
		addr 02:00:00:00:0b:01
		type mesh point
phy#0
	Interface phy0-ap0
		addr 02:00:00:00:0b:00
		type AP
`
	apAMesh = `Station 02:00:00:00:0b:01 (on phy1-mesh0)
	signal:  	-55 dBm
	expected throughput:	300.0Mbps
`
	apBMesh = `Station 02:00:00:00:0a:01 (on phy1-mesh0)
	signal:  	-57 dBm
`
	apAClients = `Station aa:bb:cc:00:00:01 (on phy0-ap0)
	signal:  	-60 dBm
`
	apBClients = `Station aa:bb:cc:00:00:02 (on phy0-ap0)
	signal:  	-50 dBm
`
)

// newTestPipeline wires a pipeline to a mock mesh of ap-a and ap-b, with
// ap-c unreachable. Output goes to a .dot file under a temp dir.
func newTestPipeline(t *testing.T) (*pipeline, *bytes.Buffer, *logger.BufferLogger) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Nodes = []config.Node{
		{Name: "ap-a", Address: "10.0.0.1", User: "root"},
		{Name: "ap-b", Address: "10.0.0.2", User: "root"},
		{Name: "ap-c", Address: "10.0.0.3", User: "root"},
	}
	cfg.Probe.Ping = false
	cfg.ResolveHostnames = false
	cfg.Output.File = filepath.Join(t.TempDir(), "out", "mesh.dot")

	dialer := sshtesting.NewMockDialer()
	a := dialer.Add(sshtesting.NewMockClient("10.0.0.1"))
	sshtesting.WithOutputs(a, map[string]string{
		"iw dev":                         apAInterfaces,
		"iw dev phy1-mesh0 station dump": apAMesh,
		"iw dev phy0-ap0 station dump":   apAClients,
	})
	b := dialer.Add(sshtesting.NewMockClient("10.0.0.2"))
	sshtesting.WithOutputs(b, map[string]string{
		"iw dev":                         apBInterfaces,
		"iw dev phy1-mesh0 station dump": apBMesh,
		"iw dev phy0-ap0 station dump":   apBClients,
	})

	var out bytes.Buffer
	log := logger.NewBufferLogger()
	return &pipeline{cfg: cfg, log: log, dialer: dialer, out: &out}, &out, log
}

func TestPipeline_Run(t *testing.T) {
	p, out, log := newTestPipeline(t)

	require.NoError(t, p.run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "Collected 2 of 3 nodes")
	assert.Contains(t, output, "ap-a")
	assert.Contains(t, output, "1 link")
	assert.Contains(t, output, "Can't connect to 'ap-c'")
	assert.Contains(t, output, "2 of 3 nodes reachable")
	assert.Contains(t, output, "(5 nodes, 3 links)")

	data, err := os.ReadFile(p.cfg.Output.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ap-a"`)
	assert.Contains(t, string(data), `"ap-c"`)

	assert.True(t, log.HasLevel("warn"), "unreachable node should be logged")
}

func TestPipeline_Quiet(t *testing.T) {
	p, out, _ := newTestPipeline(t)
	p.quiet = true

	require.NoError(t, p.run(context.Background()))
	assert.Empty(t, out.String())
	assert.FileExists(t, p.cfg.Output.File)
}

func TestPipeline_RenderError(t *testing.T) {
	p, out, _ := newTestPipeline(t)
	p.cfg.Output.File = filepath.Join(t.TempDir(), "mesh.bmp")

	err := p.run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRender))
	assert.Contains(t, out.String(), "Rendering")
}

func TestPipeline_Interrupted(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.NoFileExists(t, p.cfg.Output.File)
}

func TestPipeline_ProgressHoldsWarnings(t *testing.T) {
	p, out, log := newTestPipeline(t)
	p.progress = true

	require.NoError(t, p.run(context.Background()))

	assert.Contains(t, out.String(), "Collected 2 of 3 nodes")
	// The warning about ap-c reaches the real logger after the spinner stops.
	assert.True(t, log.HasLevel("warn"))
	assert.False(t, log.HasLevel("info"), "info lines are dropped while the spinner runs")
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name    string
		opts    RunOptions
		check   func(t *testing.T, cfg *config.Config)
		wantErr bool
	}{
		{
			name: "nothing set keeps config",
			opts: RunOptions{},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DefaultConfig(), cfg)
			},
		},
		{
			name: "output",
			opts: RunOptions{Output: "mesh.svg"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "mesh.svg", cfg.Output.File)
			},
		},
		{
			name: "timeout",
			opts: RunOptions{Timeout: "30s"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 30*time.Second, cfg.Timeout)
			},
		},
		{
			name: "probes and host keys",
			opts: RunOptions{Iperf3: true, NoPing: true, Insecure: true},
			check: func(t *testing.T, cfg *config.Config) {
				assert.True(t, cfg.Probe.Iperf3)
				assert.False(t, cfg.Probe.Ping)
				assert.True(t, cfg.InsecureHostKey)
			},
		},
		{
			name:    "bad timeout",
			opts:    RunOptions{Timeout: "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := applyOverrides(cfg, tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestDiagramTitle(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "Mesh network with clients and link quality", diagramTitle(cfg))

	cfg.Probe.Iperf3 = true
	assert.Equal(t, "Mesh network with clients and link quality (incl. iperf3 & ping)", diagramTitle(cfg))

	cfg.Output.Title = ""
	assert.Empty(t, diagramTitle(cfg))
}

func TestRun_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("version: 1\nnodes: []\n"), 0o600))

	tests := []struct {
		name string
		opts RunOptions
	}{
		{"missing file", RunOptions{ConfigPath: filepath.Join(dir, "nope.yaml")}},
		{"empty inventory", RunOptions{ConfigPath: empty}},
		{"bad timeout flag", RunOptions{ConfigPath: empty, Timeout: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := Run(context.Background(), &stdout, &stderr, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig), "got %v", err)
		})
	}
}

func TestNodeStatuses(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Nodes = []config.Node{
		{Name: "ap-a", Address: "10.0.0.1"},
		{Name: "ap-b", Address: "10.0.0.2"},
		{Name: "ap-c", Address: "10.0.0.3"},
	}
	snap := &mesh.Snapshot{
		Nodes: []string{"ap-a", "ap-b"},
		Reports: []*mesh.NodeReport{
			{
				Node:      "ap-a",
				LocalMACs: []string{"02:00:00:00:0a:01"},
				Peers:     []mesh.PeerObservation{{PeerMAC: "02:00:00:00:0b:01"}},
				Clients: []mesh.ClientObservation{
					{MAC: "aa:bb:cc:00:00:01"},
					{MAC: "aa:bb:cc:00:00:01", Interface: "phy1-ap0"},
					{MAC: "02:00:00:00:0b:01"}, // ap-b failed, so this counts as a client
				},
				Duration: time.Second,
			},
			{
				Node:      "ap-b",
				LocalMACs: []string{"02:00:00:00:0b:01"},
				Err:       errors.New(errors.ErrSSH, "Can't reach 'ap-b' at 10.0.0.2:22", ""),
			},
		},
	}

	got := nodeStatuses(cfg, snap)
	require.Len(t, got, 3)

	// ap-b failed, so its MAC resolves to no node and it is not a peer.
	assert.True(t, got[0].OK)
	assert.Equal(t, 0, got[0].Peers)
	assert.Equal(t, 2, got[0].Clients)
	assert.Equal(t, time.Second, got[0].Duration)

	assert.False(t, got[1].OK)
	assert.Equal(t, "Can't reach 'ap-b' at 10.0.0.2:22", got[1].Detail)

	assert.False(t, got[2].OK)
	assert.Equal(t, "not collected", got[2].Detail)
	assert.Equal(t, "10.0.0.3", got[2].Address)
}

func TestCountClients(t *testing.T) {
	r := &mesh.NodeReport{Clients: []mesh.ClientObservation{
		{MAC: "aa:bb:cc:00:00:01"},
		{MAC: "aa:bb:cc:00:00:02"},
		{MAC: "aa:bb:cc:00:00:01"},
		{MAC: "02:00:00:00:0b:01"},
	}}
	assert.Equal(t, 2, countClients(r, map[string]string{"02:00:00:00:0b:01": "ap-b"}))
	assert.Equal(t, 3, countClients(r, nil))
}

func TestReplayWarnings(t *testing.T) {
	held := logger.NewBufferLogger()
	held.Info("Collecting ap-a")
	held.Warn("Skipping %s: %s", "ap-c", "timeout")
	held.Error("boom")
	held.Debug("noise")

	dst := logger.NewBufferLogger()
	replayWarnings(held, dst)

	require.Len(t, dst.Messages, 2)
	assert.Equal(t, logger.LogMessage{Level: "warn", Message: "Skipping ap-c: timeout"}, dst.Messages[0])
	assert.Equal(t, logger.LogMessage{Level: "error", Message: "boom"}, dst.Messages[1])

	assert.NotPanics(t, func() { replayWarnings(nil, dst) })
}

func TestAskPasswords(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Nodes = []config.Node{
		{Name: "ap-a", Address: "10.0.0.1", Password: "already"},
		{Name: "ap-b", Address: "10.0.0.2", User: "admin"},
		{Name: "ap-c", Address: "10.0.0.3"},
	}

	var prompts []string
	answers := map[string]string{"ap-b": "hunter2", "ap-c": ""}
	err := askPasswords(cfg, func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		for name, pw := range answers {
			if bytes.Contains([]byte(prompt), []byte("@"+name+" ")) {
				return pw, nil
			}
		}
		return "", nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Password for admin@ap-b (empty for key auth): ",
		"Password for root@ap-c (empty for key auth): ",
	}, prompts)
	assert.Equal(t, "already", cfg.Nodes[0].Password)
	assert.Equal(t, "hunter2", cfg.Nodes[1].Password)
	assert.Empty(t, cfg.Nodes[2].Password)
}

func TestAskPasswords_PromptError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Nodes = []config.Node{{Name: "ap-a", Address: "10.0.0.1"}}

	err := askPasswords(cfg, func(string) (string, error) {
		return "", fmt.Errorf("--ask-pass needs an interactive terminal")
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "ap-a")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 node", plural(1, "node", "nodes"))
	assert.Equal(t, "0 nodes", plural(0, "node", "nodes"))
	assert.Equal(t, "3 links", plural(3, "link", "links"))
}

func TestWarnInsecure(t *testing.T) {
	cfg := config.DefaultConfig()

	var out bytes.Buffer
	warnInsecure(&out, cfg)
	assert.Empty(t, out.String())

	cfg.InsecureHostKey = true
	warnInsecure(&out, cfg)
	assert.Contains(t, out.String(), "Host key checking is off")
}
