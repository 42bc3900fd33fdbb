package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	quiet   bool
	noColor bool
)

// Collection flags, applied on top of the config file
var runFlags RunOptions

var rootCmd = &cobra.Command{
	Use:   "meshmap",
	Short: "Draw an OpenWrt mesh network with its clients and link quality",
	Long: `meshmap logs into every router listed in meshmap.yaml over SSH, reads the
802.11s mesh and Wi-Fi client state, and draws the result: mesh nodes, mesh
links labelled with signal, throughput and latency, and the clients hanging
off each node.

Nothing on the routers is changed. Every command it runs is read-only.

Examples:
  meshmap
  meshmap -o mesh.svg
  meshmap --iperf3 -o mesh.png
  meshmap --config ~/mesh.yaml --ask-pass`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runFlags
		opts.ConfigPath = cfgFile
		opts.Verbose = verbose
		opts.Quiet = quiet
		return Run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./"+config.ConfigFileName+" or ~/"+config.GlobalConfigDir+"/"+config.GlobalConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output, including every remote command")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.Flags().StringVarP(&runFlags.Output, "output", "o", "", "output file; the extension picks the format (default "+config.DefaultOutputFile+")")
	rootCmd.Flags().StringVar(&runFlags.Timeout, "timeout", "", "SSH connect and per-command timeout (e.g., 10s)")
	rootCmd.Flags().BoolVar(&runFlags.Iperf3, "iperf3", false, "benchmark every mesh link with iperf3")
	rootCmd.Flags().BoolVar(&runFlags.NoPing, "no-ping", false, "skip the ping latency probe")
	rootCmd.Flags().BoolVar(&runFlags.Insecure, "insecure", false, "don't check host keys against known_hosts")
	rootCmd.Flags().BoolVar(&runFlags.AskPass, "ask-pass", false, "prompt for passwords left empty in the config")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// Execute runs the root command. Errors are printed once and exit with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError prints structured errors as-is and everything else
// (mostly cobra flag errors) in the same shape.
func printError(w io.Writer, err error) {
	var mmErr *errors.Error
	if stderrors.As(err, &mmErr) {
		fmt.Fprint(w, mmErr.Error())
		return
	}
	fmt.Fprintf(w, "%s %s\n", ui.SymbolFail, err)
}
