package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/ui"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the mesh nodes in the config",
	Long: `Show the mesh inventory meshmap would collect from, and how it
authenticates to each node. Nothing is contacted.

Examples:
  meshmap nodes
  meshmap nodes --config ~/mesh.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nodesCommand(cmd.OutOrStdout(), cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}

func nodesCommand(w io.Writer, configPath string) error {
	cfg, path, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n\n", ui.MutedStyle().Render("Config:"), path)
	if len(cfg.Nodes) == 0 {
		fmt.Fprintf(w, "No nodes configured. Add some under 'nodes' in %s.\n", path)
		return nil
	}
	fmt.Fprintln(w, renderInventory(cfg))
	return nil
}

var inventoryColumns = []ui.TableColumn{
	{Title: "Name", Width: 16},
	{Title: "Address", Width: 18},
	{Title: "User", Width: 8},
	{Title: "Port", Width: 6},
	{Title: "Auth", Width: 28},
}

func renderInventory(cfg *config.Config) string {
	rows := make([][]string, 0, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		user := n.User
		if user == "" {
			user = sshutil.DefaultUser
		}
		port := "22"
		if n.Port != 0 {
			port = strconv.Itoa(n.Port)
		}
		rows = append(rows, []string{n.DisplayName(), n.Address, user, port, authMethod(n)})
	}
	return ui.RenderSimpleTable(inventoryColumns, rows)
}

// authMethod describes how a node will be authenticated. Passwords are
// never shown.
func authMethod(n config.Node) string {
	switch {
	case n.Password != "":
		return "password"
	case n.IdentityFile != "":
		return "key " + n.IdentityFile
	default:
		return "agent / default keys"
	}
}
