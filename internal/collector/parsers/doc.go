// Package parsers turns the text output of OpenWrt status commands into
// mesh values. There is one parser per command; each is a pure function
// so that firmware format drift stays a local, testable change.
//
// Unknown lines are ignored. A line that looks like it should carry a
// value but doesn't parse returns a PARSE error from internal/errors.
package parsers
