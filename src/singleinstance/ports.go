package singleinstance

import (
	"net"
	"os"
	"strconv"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49650

	PortStartEnvVar = "SCREEN_TIMER_PORT_START"
	PortEndEnvVar   = "SCREEN_TIMER_PORT_END"
)

// PortRange returns the inclusive loopback port range an overlay may listen
// on. Invalid values fall back to the defaults; the result is kept within
// [1024, 65535] and ordered.
func PortRange() (int, int) {
	start := portFromEnv(PortStartEnvVar, defaultPortStart)
	end := portFromEnv(PortEndEnvVar, defaultPortEnd)
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func portFromEnv(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}
