package daemon_test

import (
	"context"
	"path/filepath"
	"testing"

	"storyfeed/internal/daemon"
	"storyfeed/internal/testsupport"
	"storyfeed/internal/workflow"
)

func TestDaemonLifecycleAndLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, nil)

	logPath := filepath.Join(cfg.Paths.LogDir, "storyfeed.log")
	d, err := daemon.New(cfg, store, nil, mgr, logPath)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}
	if status.LockFilePath == "" || status.QueueDBPath == "" {
		t.Fatalf("expected lock and db paths, got %+v", status)
	}

	secondStore := testsupport.MustOpenStore(t, cfg)
	secondMgr := workflow.NewManager(cfg, secondStore, nil)
	second, err := daemon.New(cfg, secondStore, nil, secondMgr, logPath)
	if err != nil {
		t.Fatalf("daemon.New second: %v", err)
	}
	t.Cleanup(func() { second.Close() })
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock contention to reject the second daemon")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to report stopped")
	}

	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after lock release: %v", err)
	}
	second.Stop()
}

func TestDaemonTestNotificationUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, nil)
	d, err := daemon.New(cfg, store, nil, mgr, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent || message == "" {
		t.Fatalf("expected unsent with explanation, got sent=%v message=%q", sent, message)
	}
}
