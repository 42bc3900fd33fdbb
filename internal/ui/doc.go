// Package ui provides the terminal output used by the meshmap CLI.
//
// Everything is styled with Lip Gloss using ANSI colors so the output
// stays readable on any palette:
//
//	ColorSuccess   (green)  - reachable nodes, finished phases
//	ColorError     (red)    - failed nodes
//	ColorWarning   (yellow) - partial results, skipped phases
//	ColorMuted     (gray)   - addresses, timings
//
// Use DisableColors() for --no-color.
//
// # Components
//
//	Spinner       - animated indicator while nodes are being collected
//	PhaseDisplay  - one line per finished step (collect, build, render)
//	NodeSummary   - per-node results after collection
//	Table         - Bubbles table rendered to a string for 'meshmap nodes'
//	DoctorTable   - grouped check results for 'meshmap doctor'
//
// Typical use:
//
//	s := ui.NewSpinner("Collecting")
//	s.Start()
//	// ... work, calling s.SetLabel as nodes finish ...
//	s.Success()
//	fmt.Print(ui.RenderNodeSummary(rows))
package ui
