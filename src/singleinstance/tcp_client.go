package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, req Request) (bool, string, error) {
	timeout := timeoutFrom(ctx, 2*time.Second)
	port, ok := scanPorts(ctx, timeout)
	if !ok {
		return false, "", ctx.Err()
	}
	return exchange(residentAddr(port), timeout, req)
}

// DetectResidentPort returns the port of a resident answering PING.
func DetectResidentPort(ctx context.Context) (int, bool) {
	return scanPorts(ctx, timeoutFrom(ctx, 300*time.Millisecond))
}

func timeoutFrom(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return fallback
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

// scanPorts walks the port range and stops at the first resident.
func scanPorts(ctx context.Context, timeout time.Duration) (int, bool) {
	start, end := getPortRange()
	for port := start; port <= end && ctx.Err() == nil; port++ {
		if isResident(residentAddr(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

func dial(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	return conn, nil
}

func isResident(addr string, timeout time.Duration) bool {
	conn, err := dial(addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && line == pongResponse
}

func exchange(addr string, timeout time.Duration, req Request) (bool, string, error) {
	conn, err := dial(addr, timeout)
	if err != nil {
		return false, "", nil
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, encodeRequest(req)); err != nil {
		return true, "", err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return true, "", err
	}
	body, _ := io.ReadAll(br)
	switch status {
	case statusSuccess:
		return true, string(body), nil
	case statusError:
		return true, "", errors.New(string(body))
	default:
		return true, "", errors.New("unexpected response from resident")
	}
}
