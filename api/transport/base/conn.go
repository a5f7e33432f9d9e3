package base

import (
	"net"
	"time"
)

// deadlineConn sets the read deadline on the first Read and the write
// deadline on the first Write. Later calls share these deadlines.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	readSet      bool
	writeSet     bool
}

// WithDeadlines wraps conn so that all reads must complete within readTimeout
// of the first Read and all writes within writeTimeout of the first Write. A
// peer that trickles data therefore cannot hold the connection open. Zero
// timeouts are not applied, if both are zero conn is returned as is.
//
// The returned conn must not be used by more than one goroutine.
func WithDeadlines(conn net.Conn, readTimeout, writeTimeout time.Duration) net.Conn {
	if readTimeout <= 0 && writeTimeout <= 0 {
		return conn
	}
	return &deadlineConn{Conn: conn, readTimeout: readTimeout, writeTimeout: writeTimeout}
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.readTimeout > 0 && !c.readSet {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
		c.readSet = true
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.writeTimeout > 0 && !c.writeSet {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
		c.writeSet = true
	}
	return c.Conn.Write(b)
}
