package http

import (
	"io"
	"net"

	"github.com/benbjohnson/clock"
	"github.com/dchest/uniuri"
	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/indigo-web/protover/config"
	"github.com/indigo-web/protover/http/method"
	"github.com/indigo-web/protover/http/proto"
	"github.com/indigo-web/protover/http/status"
	"github.com/indigo-web/protover/internal/buffer"
	"github.com/indigo-web/protover/internal/protocol/http1"
	"github.com/indigo-web/protover/internal/server/tcp"
)

const connIDLength = 8

// VersionInfo is the response body of every successfully parsed request.
type VersionInfo struct {
	Protocol string `json:"protocol"`
	Major    int    `json:"major"`
	Minor    int    `json:"minor"`
	Method   string `json:"method"`
	Target   string `json:"target"`
}

// Server reports the protocol version of each request back to the client.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	clock  clock.Clock
}

func NewServer(cfg *config.Config, logger zerolog.Logger, clk clock.Clock) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		clock:  clk,
	}
}

// Serve is a tcp.OnConn.
func (s *Server) Serve(conn net.Conn) {
	client := tcp.NewClient(conn, s.clock, s.cfg.NET.ReadTimeout, make([]byte, s.cfg.NET.ReadBufferSize))
	s.Run(client)
}

// Run serves requests from the client until either side closes the connection.
func (s *Server) Run(client tcp.Client) {
	c := s.newConn(client)
	started := s.clock.Now()
	c.logger.Debug().Msg("connection opened")

	for c.HandleRequest() {
	}

	_ = client.Close()
	c.logger.Debug().
		Int("requests", c.served).
		Dur("duration", s.clock.Since(started)).
		Msg("connection closed")
}

func (s *Server) newConn(client tcp.Client) *conn {
	request := new(http1.RequestLine)
	requestLine := buffer.New(s.cfg.RequestLine.Size.Default, s.cfg.RequestLine.Size.Maximal)
	writeBuff := make([]byte, 0, s.cfg.NET.WriteBufferSize.Default)

	return &conn{
		client:     client,
		request:    request,
		parser:     http1.NewParser(s.cfg, request, requestLine),
		serializer: http1.NewSerializer(s.cfg, client, writeBuff),
		logger: s.logger.With().
			Str("conn", uniuri.NewLen(connIDLength)).
			Str("remote", remoteOf(client)).
			Logger(),
		clock: s.clock,
	}
}

type conn struct {
	client     tcp.Client
	request    *http1.RequestLine
	parser     *http1.Parser
	serializer *http1.Serializer
	logger     zerolog.Logger
	clock      clock.Clock
	served     int
}

// HandleRequest processes a single chunk of data. It returns false once the connection must
// be closed.
func (c *conn) HandleRequest() (ok bool) {
	data, err := c.client.Read()
	if err != nil {
		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			c.logger.Debug().Msg("read timeout")
			// the connection is closed anyway, so the write error doesn't matter
			_ = c.serializer.Write(proto.HTTP11, errorResponse(status.ErrRequestTimeout))
		case !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed):
			c.logger.Debug().Err(err).Msg("read failed")
		}

		return false
	}

	state, extra, err := c.parser.Parse(data)
	switch state {
	case http1.Pending:
		return true
	case http1.HeadersCompleted:
		c.client.Unread(extra)
		start := c.clock.Now()
		version, response := c.respond()

		if err = c.serializer.Write(version, response); err != nil {
			c.logger.Debug().Err(err).Msg("write failed")
			return false
		}

		c.served++
		c.logger.Info().
			Str("method", c.request.Method.String()).
			Str("target", c.request.Target).
			Stringer("version", c.request.Version).
			Int("status", int(response.Code)).
			Dur("took", c.clock.Since(start)).
			Msg("request served")
		c.request.Reset()

		return !response.Close
	case http1.Error:
		code := status.CodeOf(err)
		c.logger.Warn().Err(err).Int("status", int(code)).Msg("request rejected")

		// the connection is closed anyway, so the write error doesn't matter
		_ = c.serializer.Write(c.errorVersion(), errorResponse(err))

		return false
	default:
		panic("BUG: got unexpected parser state")
	}
}

// respond decides the response for the request line just parsed. Only HTTP/1.x is served;
// HTTP/1.0 connections aren't kept alive.
func (c *conn) respond() (proto.Version, http1.Response) {
	version := c.request.Version

	if version.Major() != 1 {
		return proto.HTTP11, errorResponse(status.ErrHTTPVersionNotSupported)
	}

	body, err := json.Marshal(VersionInfo{
		Protocol: version.String(),
		Major:    version.Major(),
		Minor:    version.Minor(),
		Method:   c.request.Method.String(),
		Target:   c.request.Target,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to encode the response body")

		return version, errorResponse(status.ErrInternalServerError)
	}

	return version, http1.Response{
		Code:        status.OK,
		ContentType: "application/json",
		Body:        body,
		Close:       version.Minor() == 0,
		OmitBody:    c.request.Method == method.HEAD,
	}
}

// errorVersion picks the version to answer a rejected request with. Only the request's own
// HTTP/1.x version is repeated, anything else is answered with HTTP/1.1.
func (c *conn) errorVersion() proto.Version {
	if version := c.request.Version; version != nil && version.Major() == 1 {
		return version
	}

	return proto.HTTP11
}

// errorResponse renders the error as a plain-text body with the status of the error. The
// connection is always closed afterwards.
func errorResponse(err error) http1.Response {
	return http1.Response{
		Code:        status.CodeOf(err),
		ContentType: "text/plain",
		Body:        []byte(err.Error()),
		Close:       true,
	}
}

func remoteOf(client tcp.Client) string {
	if addr := client.Remote(); addr != nil {
		return addr.String()
	}

	return "unknown"
}
