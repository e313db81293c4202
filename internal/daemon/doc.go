// Package daemon hosts the long-running storyfeed process: it owns the
// workflow manager lifecycle, enforces single-instance execution via a lock
// file, and exposes the operations the IPC layer serves to the CLI.
package daemon
