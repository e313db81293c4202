// Package ipc implements the JSON-RPC protocol the CLI uses to control a
// running storyfeed daemon over a Unix domain socket.
package ipc
