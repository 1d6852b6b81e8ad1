// Package singleinstance keeps one overlay per user session and lets later
// invocations send it commands over a loopback TCP line protocol.
package singleinstance

import (
	"context"
	"strings"
)

const (
	CommandReset  = "RESET"
	CommandStatus = "STATUS"
)

// Server owns the TCP endpoint and hands accepted commands to the caller.
type Server interface {
	// Start listens on the first port of the configured range. It fails if
	// that port is taken, which means another overlay is running.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted command connection, or ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one client connection carrying a single command.
type Conn interface {
	Request() Request
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

type Request struct {
	Command string
}

// Client delegates a command to a resident overlay.
type Client interface {
	// Send scans the port range for a resident and sends command. If no
	// resident answers, it returns delegated=false, err=nil.
	Send(ctx context.Context, command string) (delegated bool, text string, err error)
}

func NewServer() Server { return newTcpServer() }

func NewClient() Client { return newTcpClient() }

func parseCommand(line string) (string, bool) {
	cmd := strings.ToUpper(strings.TrimSpace(line))
	switch cmd {
	case CommandReset, CommandStatus:
		return cmd, true
	default:
		return cmd, false
	}
}
