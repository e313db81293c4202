package main

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"syscall"

	"storyfeed/internal/config"
	"storyfeed/internal/daemonrun"
	"storyfeed/internal/ipc"
	"storyfeed/internal/queue"
	"storyfeed/internal/queueaccess"
)

// commandContext carries lazily loaded configuration and daemon connection
// helpers shared by every subcommand.
type commandContext struct {
	configFlag *string
	socketFlag *string

	once    sync.Once
	cfg     *config.Config
	cfgPath string
	created bool
	loadErr error
}

func newCommandContext(configFlag, socketFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, socketFlag: socketFlag}
}

func (c *commandContext) ensureConfig() error {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = *c.configFlag
		}
		c.cfg, c.cfgPath, c.created, c.loadErr = config.Load(path)
	})
	return c.loadErr
}

func (c *commandContext) config() (*config.Config, error) {
	if err := c.ensureConfig(); err != nil {
		return nil, err
	}
	return c.cfg, nil
}

func (c *commandContext) configPath() string {
	return c.cfgPath
}

func (c *commandContext) configCreated() bool {
	return c.created
}

// socketPath resolves the daemon control socket, preferring the --socket flag.
func (c *commandContext) socketPath() (string, error) {
	if c.socketFlag != nil && *c.socketFlag != "" {
		return *c.socketFlag, nil
	}
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return daemonrun.SocketPath(cfg), nil
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket, err := c.socketPath()
	if err != nil {
		return nil, err
	}
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(socket, err)
	}
	return client, nil
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// openQueueSession prefers the daemon IPC channel and falls back to opening
// the queue database directly when the daemon is not running.
func (c *commandContext) openQueueSession() (queueaccess.Session, error) {
	cfg, err := c.config()
	if err != nil {
		return queueaccess.Session{}, err
	}
	return queueaccess.OpenWithFallback(
		func() (*ipc.Client, error) { return c.dialClient() },
		func() (*queue.Store, error) { return queue.Open(cfg) },
	)
}

func wrapDialError(socket string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("daemon is not running (no socket at %s); start it with 'storyfeed start'", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("daemon socket %s is stale; restart the daemon with 'storyfeed start'", socket)
	default:
		return fmt.Errorf("connect to daemon at %s: %w", socket, err)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
