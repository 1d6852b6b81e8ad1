package singleinstance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, command string) (bool, string, error) {
	timeout := timeoutFrom(ctx, 2*time.Second)
	start, end := PortRange()
	for port := start; port <= end; port++ {
		if err := ctx.Err(); err != nil {
			return false, "", err
		}
		addr := residentAddr(port)
		if !ping(addr, timeout) {
			continue
		}
		text, err := sendCommand(addr, command, timeout)
		return true, text, err
	}
	return false, "", nil
}

func sendCommand(addr, command string, timeout time.Duration) (string, error) {
	status, body, err := exchange(addr, command+"\n", timeout)
	if err != nil {
		return "", err
	}
	switch status {
	case "SUCCESS\n":
		return body, nil
	case "ERROR\n":
		return "", errors.New(body)
	default:
		return "", fmt.Errorf("unexpected reply %q", status)
	}
}
