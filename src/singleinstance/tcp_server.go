package singleinstance

import (
	"bufio"
	"context"
	"log"
	"net"
	"sync"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	lis       net.Listener
	incoming  chan *tcpConn
	done      chan struct{}
	closeOnce sync.Once
	port      int
}

func newTcpServer() *tcpServer {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds ONLY the start port of the configured range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, _ := PortRange()
	addr := residentAddr(start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int { return s.port }

const (
	readTimeout  = 3 * time.Second
	replyTimeout = 10 * time.Second
)

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		tc, ok := s.readRequest(c)
		if !ok {
			continue
		}
		select {
		case s.incoming <- tc:
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-s.done:
			_ = c.Close()
			return
		}
	}
}

// readRequest reads the command line of c. PINGs and unknown commands are
// answered and closed here; ok is true only for a command the loop handles.
func (s *tcpServer) readRequest(c net.Conn) (*tcpConn, bool) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(readTimeout))
	line, _ := bufio.NewReader(c).ReadString('\n')
	tc := &tcpConn{c: c, w: bufio.NewWriter(c)}

	if line == pingRequest {
		_ = tc.reply(pongResponse)
		_ = c.Close()
		return nil, false
	}
	cmd, ok := parseCommand(line)
	if !ok {
		log.Printf("singleinstance: unknown command %q from %s", cmd, remote)
		_ = tc.RespondError("unknown command " + cmd)
		_ = c.Close()
		return nil, false
	}
	log.Printf("singleinstance: %s from %s", cmd, remote)
	_ = c.SetDeadline(time.Now().Add(replyTimeout))
	tc.r = Request{Command: cmd}
	return tc, true
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(text string) error { return tc.reply("SUCCESS\n" + text) }

func (tc *tcpConn) RespondError(msg string) error { return tc.reply("ERROR\n" + msg) }

func (tc *tcpConn) reply(s string) error {
	if _, err := tc.w.WriteString(s); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
