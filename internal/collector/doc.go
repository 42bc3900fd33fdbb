// Package collector visits each configured mesh node over SSH, runs the
// read-only status commands, and assembles the parsed results into a
// mesh.Snapshot. Nodes are visited one at a time. A node that can't be
// reached or whose output doesn't parse is recorded as failed and the run
// moves on.
package collector
