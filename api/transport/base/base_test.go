package base_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/transport"
	"github.com/ValentinKolb/mocker/api/transport/base"
	"github.com/ValentinKolb/mocker/api/transport/tcp"
	"github.com/ValentinKolb/mocker/api/transport/unix"
)

// echo answers the first line of a connection
func echo(conn net.Conn) {
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	_, _ = conn.Write([]byte(line))
}

type testTransport struct {
	name   string
	server func(set *vm.Set) transport.IServerTransport
	client func() transport.IClientTransport
	config func(t *testing.T) common.ServerConfig
}

func testTransports() []testTransport {
	return []testTransport{
		{
			name:   "tcp",
			server: tcp.NewTCPServerTransport,
			client: tcp.NewTCPClientTransport,
			config: func(t *testing.T) common.ServerConfig {
				conf := common.DefaultServerConfig()
				conf.Port = 0
				return conf
			},
		},
		{
			name:   "unix",
			server: unix.NewUnixServerTransport,
			client: unix.NewUnixClientTransport,
			config: func(t *testing.T) common.ServerConfig {
				conf := common.DefaultServerConfig()
				conf.Transport = common.TransportUnix
				conf.Socket = filepath.Join(t.TempDir(), "m.sock")
				return conf
			},
		},
	}
}

// startServer binds and serves in the background, the returned function stops
// the server and waits for Serve to return
func startServer(t *testing.T, tt testTransport, conf common.ServerConfig, h transport.ConnHandler) (string, func()) {
	t.Helper()
	srv := tt.server(vm.NewSet())
	srv.RegisterHandler(h)
	addr, err := srv.Bind(conf)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	}
	return addr.String(), stop
}

// send writes msg and returns everything the server answers
func send(t *testing.T, c transport.IClientTransport, endpoint, msg string) (string, error) {
	t.Helper()
	var answer []byte
	err := c.Exchange(endpoint, 2*time.Second, func(conn net.Conn) error {
		if _, err := conn.Write([]byte(msg)); err != nil {
			return err
		}
		var err error
		answer, err = io.ReadAll(conn)
		return err
	})
	return string(answer), err
}

// TestExchange tests one request per connection
func TestExchange(t *testing.T) {
	for _, tt := range testTransports() {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, stop := startServer(t, tt, tt.config(t), echo)
			defer stop()

			client := tt.client()
			for _, msg := range []string{"hello\n", "world\n"} {
				got, err := send(t, client, endpoint, msg)
				if err != nil || got != msg {
					t.Errorf("send(%q) = %q, %v", msg, got, err)
				}
			}
		})
	}
}

// TestMaxConnections tests that the semaphore bounds concurrent handlers
func TestMaxConnections(t *testing.T) {
	tt := testTransports()[0]
	conf := tt.config(t)
	conf.MaxConnections = 2

	var current, peak atomic.Int64
	handler := func(conn net.Conn) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		echo(conn)
	}
	endpoint, stop := startServer(t, tt, conf, handler)
	defer stop()

	client := tt.client()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := send(t, client, endpoint, "x\n"); err != nil || got != "x\n" {
				t.Errorf("send = %q, %v", got, err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("Expected at most 2 concurrent handlers, got %d", peak.Load())
	}
}

// TestPanicRecovery tests that a panicking handler only loses its connection
func TestPanicRecovery(t *testing.T) {
	tt := testTransports()[0]
	var calls atomic.Int64
	handler := func(conn net.Conn) {
		if calls.Add(1) == 1 {
			_, _ = bufio.NewReader(conn).ReadString('\n')
			panic("handler failure")
		}
		echo(conn)
	}
	endpoint, stop := startServer(t, tt, tt.config(t), handler)
	defer stop()

	client := tt.client()
	if got, _ := send(t, client, endpoint, "a\n"); got != "" {
		t.Errorf("Expected no answer from panicking handler, got %q", got)
	}
	if got, err := send(t, client, endpoint, "b\n"); err != nil || got != "b\n" {
		t.Errorf("send after panic = %q, %v", got, err)
	}
}

// TestGracefulShutdown tests that Serve waits for running connections
func TestGracefulShutdown(t *testing.T) {
	tt := testTransports()[0]
	release := make(chan struct{})
	entered := make(chan struct{})
	handler := func(conn net.Conn) {
		_, _ = bufio.NewReader(conn).ReadString('\n')
		close(entered)
		<-release
		_, _ = conn.Write([]byte("late\n"))
	}
	endpoint, stop := startServer(t, tt, tt.config(t), handler)

	answer := make(chan string, 1)
	go func() {
		got, _ := send(t, tt.client(), endpoint, "x\n")
		answer <- got
	}()
	<-entered

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Serve returned while a connection was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
	if got := <-answer; got != "late\n" {
		t.Errorf("Expected in-flight answer, got %q", got)
	}

	// the listener is closed
	if _, err := send(t, tt.client(), endpoint, "x\n"); err == nil {
		t.Error("Expected connect to fail after shutdown")
	}
}

// TestUnixSocketReplaced tests that a stale socket file does not prevent binding
func TestUnixSocketReplaced(t *testing.T) {
	tt := testTransports()[1]
	conf := tt.config(t)
	if err := os.WriteFile(conf.Socket, []byte("stale"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	endpoint, stop := startServer(t, tt, conf, echo)
	defer stop()

	if got, err := send(t, tt.client(), endpoint, "u\n"); err != nil || got != "u\n" {
		t.Errorf("send = %q, %v", got, err)
	}
}

// TestDeadlines tests that reads fail once the read timeout passes
func TestDeadlines(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	conn := base.WithDeadlines(a, 20*time.Millisecond, 0)
	start := time.Now()
	_, err := conn.Read(make([]byte, 1))
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Read blocked for %s", time.Since(start))
	}

	if base.WithDeadlines(a, 0, 0) != a {
		t.Error("Expected connection without timeouts to be returned unwrapped")
	}
}

// TestDeadlinesTrickle tests that the read timeout bounds the whole request,
// not the pause between two reads
func TestDeadlinesTrickle(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				if _, err := b.Write([]byte("x")); err != nil {
					return
				}
			}
		}
	}()

	conn := base.WithDeadlines(a, 50*time.Millisecond, 0)
	start := time.Now()
	buf := make([]byte, 1)
	var err error
	for err == nil {
		_, err = conn.Read(buf)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Trickling peer held the connection for %s", elapsed)
	}
}

// TestServeWithoutBind tests the misuse of Serve
func TestServeWithoutBind(t *testing.T) {
	srv := tcp.NewTCPServerTransport(nil)
	srv.RegisterHandler(echo)
	if err := srv.Serve(context.Background()); err == nil {
		t.Error("Expected Serve without Bind to fail")
	}
}
