package singleinstance

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"
)

const detectTimeout = 300 * time.Millisecond

// DetectResidentPort returns the port of a running overlay that answers PING.
func DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := timeoutFrom(ctx, detectTimeout)
	start, end := PortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(residentAddr(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

// timeoutFrom returns the time left on ctx, or fallback without a deadline.
func timeoutFrom(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return fallback
}

func ping(addr string, timeout time.Duration) bool {
	status, _, err := exchange(addr, pingRequest, timeout)
	return err == nil && status == pongResponse
}

// exchange writes one request line and reads back the status line followed by
// whatever body the server sends before closing.
func exchange(addr, line string, timeout time.Duration) (status, body string, err error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line); err != nil {
		return "", "", err
	}
	if err := w.Flush(); err != nil {
		return "", "", err
	}
	br := bufio.NewReader(conn)
	status, err = br.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	if status == pongResponse {
		return status, "", nil
	}
	rest, _ := io.ReadAll(br)
	return status, string(rest), nil
}
