// Package preflight provides readiness checks for the external tools and
// filesystem paths dharma depends on.
//
// The server runs RunAll at startup and logs failures, the /healthz route
// reports CheckSystemDeps, and the CLI "dharma status" command renders both.
package preflight
