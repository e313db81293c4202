package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusBad
	statusNeutral
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiBold   = "\x1b[1m"
)

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderStatusLine(w io.Writer, label, value string, kind statusKind) {
	if shouldColorize(w) {
		color := ""
		switch kind {
		case statusOK:
			color = ansiGreen
		case statusWarn:
			color = ansiYellow
		case statusBad:
			color = ansiRed
		}
		if color != "" {
			value = color + value + ansiReset
		}
	}
	fmt.Fprintf(w, "%-20s %s\n", label+":", value)
}

func renderSectionHeader(w io.Writer, title string) {
	heading := "== " + title + " =="
	if shouldColorize(w) {
		heading = ansiBold + heading + ansiReset
	}
	fmt.Fprintln(w, heading)
	fmt.Fprintln(w, strings.Repeat("-", len(title)+6))
}
