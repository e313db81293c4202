package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestSubmitURLRejectsInvalidAddress(t *testing.T) {
	socket := ""
	configPath := ""
	cmd := newSubmitURLCommand(newCommandContext(&configPath, &socket))
	cmd.SetArgs([]string{"not a url"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid story URL") {
		t.Fatalf("expected invalid URL error, got %v", err)
	}
}

func TestQueueShowRejectsNonNumericID(t *testing.T) {
	socket := ""
	configPath := ""
	cmd := newQueueShowCommand(newCommandContext(&configPath, &socket))
	cmd.SetArgs([]string{"abc"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid story id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueRetryRejectsNonNumericID(t *testing.T) {
	socket := ""
	configPath := ""
	cmd := newQueueRetryCommand(newCommandContext(&configPath, &socket))
	cmd.SetArgs([]string{"12", "abc"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid story id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	socket := ""
	configPath := ""
	cmd := newQueueListCommand(newCommandContext(&configPath, &socket))
	cmd.SetArgs([]string{"--status", "bogus"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}
