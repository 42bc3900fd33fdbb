// Package cli implements the meshmap command-line interface.
//
// The root command runs the whole pipeline with no arguments:
//
//  1. Load and validate meshmap.yaml, then apply flag overrides
//  2. Collect every node over SSH, one at a time
//  3. Print a per-node summary
//  4. Build the topology graph
//  5. Render it to the output file
//
// Subcommands:
//
//	meshmap            - Collect and draw the mesh
//	meshmap doctor     - Check config, SSH and router tools
//	meshmap init       - Write a starter meshmap.yaml
//	meshmap nodes      - Show the configured inventory
//	meshmap version    - Print version information
//
// # Flag Handling
//
// Global flags (--config, --verbose, --quiet, --no-color) are persistent
// and available to all subcommands. Collection flags (--output, --timeout,
// --iperf3, --no-ping, --insecure, --ask-pass) override the matching config
// values for a single run.
//
// Errors are returned as *errors.Error and printed once by Execute, which
// exits with status 1.
package cli
