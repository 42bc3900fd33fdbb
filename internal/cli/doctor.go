package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/meshmap/internal/doctor"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/ui"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
	"github.com/spf13/cobra"
)

var doctorSkipNodes bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the config, SSH setup and routers before a run",
	Long: `Run pre-flight checks: the config loads and validates, SSH can
authenticate, every node is reachable and has the commands meshmap calls
(iw, ip, and ping / iperf3 / getent when those features are on).

Examples:
  meshmap doctor
  meshmap doctor --skip-nodes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), cfgFile, doctorSkipNodes, nil)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorSkipNodes, "skip-nodes", false, "don't connect to the routers")
	rootCmd.AddCommand(doctorCmd)
}

// doctorCommand runs the checks and prints the report. dialer defaults to
// real SSH.
func doctorCommand(ctx context.Context, w io.Writer, configPath string, skipNodes bool, dialer sshutil.Dialer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fileCheck := &doctor.ConfigFileCheck{ConfigPath: configPath}
	validCheck := &doctor.ConfigValidCheck{ConfigPath: configPath}
	results := doctor.RunAll(ctx, []doctor.Check{fileCheck, validCheck})

	if cfg := validCheck.Config; cfg != nil {
		checks := []doctor.Check{
			&doctor.SSHAgentCheck{Nodes: cfg.Nodes},
			&doctor.KnownHostsCheck{Nodes: cfg.Nodes, Insecure: cfg.InsecureHostKey},
		}
		if !skipNodes {
			if dialer == nil {
				dialer = sshutil.NewDialer(sshutil.DialOptions{
					Timeout:         cfg.Timeout,
					InsecureHostKey: cfg.InsecureHostKey,
				})
			}
			tools := doctor.ToolsFor(cfg)
			for _, node := range cfg.Nodes {
				checks = append(checks, &doctor.NodeCheck{Node: node, Tools: tools, Dialer: dialer, Timeout: cfg.Timeout})
			}
		}
		results = append(results, doctor.RunAll(ctx, checks)...)
	}

	rows := make([]ui.DoctorCheckRow, len(results))
	for i, r := range results {
		rows[i] = ui.DoctorCheckRow{
			Status:     r.Status.String(),
			Category:   r.Category,
			Message:    r.Message,
			Suggestion: r.Suggestion,
		}
	}
	fmt.Fprint(w, ui.RenderDoctorTable(rows))

	summary := doctor.Summary(results)
	if doctor.HasFailures(results) {
		fmt.Fprintln(w, ui.ErrorStyle().Render(summary))
		return errors.New(errors.ErrExec,
			"Doctor found problems",
			"Fix the failed checks above, then run 'meshmap doctor' again.")
	}
	fmt.Fprintln(w, ui.SuccessStyle().Render(summary))
	return nil
}
