package client

import (
	"net"
	"time"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/proto"
	"github.com/ValentinKolb/mocker/api/transport"
	"github.com/ValentinKolb/mocker/api/transport/tcp"
	"github.com/ValentinKolb/mocker/api/transport/unix"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// Config configures a Client
type Config struct {
	// Transport is common.TransportTCP or common.TransportUnix
	Transport string
	// Endpoint is host:port for tcp and the socket path for unix
	Endpoint string
	// Framing must match the framing of the server
	Framing string
	// Timeout bounds writing the request and, separately, reading the
	// response. Zero means no limit
	Timeout time.Duration
	// MaxMessageBytes bounds the size of a response, zero means no limit
	MaxMessageBytes int
}

// Client sends requests to a mock server, one connection per request
type Client struct {
	config    Config
	transport transport.IClientTransport
}

// NewClient creates a client for config
func NewClient(config Config) *Client {
	if config.Framing == "" {
		config.Framing = common.FramingContentLength
	}
	var t transport.IClientTransport
	switch config.Transport {
	case common.TransportUnix:
		t = unix.NewUnixClientTransport()
	default:
		t = tcp.NewTCPClientTransport()
	}
	return &Client{config: config, transport: t}
}

// Do sends req and reads the response
func (c *Client) Do(req *proto.Request) (*proto.Response, error) {
	var res *proto.Response
	err := c.transport.Exchange(c.config.Endpoint, c.config.Timeout, func(conn net.Conn) error {
		if err := proto.WriteMessage(conn, req.Buffer, c.config.Framing); err != nil {
			return err
		}
		var err error
		res, err = proto.ReadResponse(conn, c.config.Framing, c.config.MaxMessageBytes)
		return err
	})
	if err != nil {
		return nil, err
	}
	Logger.Debugf("%s %s -> %d", req.Method(), req.Target(), res.Status())
	return res, nil
}

// Get sends a GET request for target
func (c *Client) Get(target string) (*proto.Response, error) {
	return c.Do(proto.NewRequest(proto.MethodGet, target, proto.DefaultVersion))
}

// Post sends a POST request for target with body of the given content type
func (c *Client) Post(target, contentType string, body []byte) (*proto.Response, error) {
	req := proto.NewRequest(proto.MethodPost, target, proto.DefaultVersion)
	req.SetHeader(proto.HeaderContentType, contentType)
	req.SetBody(body)
	return c.Do(req)
}
