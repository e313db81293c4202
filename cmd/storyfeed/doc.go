// Command storyfeed is the control CLI for the storyfeed daemon. It talks to
// a running daemon over its unix socket and falls back to direct queue
// database access for read and repair operations when the daemon is down.
package main
