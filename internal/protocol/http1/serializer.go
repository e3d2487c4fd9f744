package http1

import (
	"strconv"

	"github.com/indigo-web/protover/config"
	"github.com/indigo-web/protover/http/proto"
	"github.com/indigo-web/protover/http/status"
)

const crlf = "\r\n"

type Writer interface {
	Write([]byte) error
}

type Response struct {
	Code        status.Code
	ContentType string
	Body        []byte
	// Close adds the Connection: close header.
	Close bool
	// OmitBody keeps the Content-Length of the body but doesn't transmit it, as required
	// for responses to HEAD requests.
	OmitBody bool
}

type Serializer struct {
	buff   []byte
	cfg    *config.Config
	server string
	writer Writer
}

func NewSerializer(cfg *config.Config, writer Writer, buff []byte) *Serializer {
	return &Serializer{
		buff:   buff[:0],
		cfg:    cfg,
		server: cfg.Name,
		writer: writer,
	}
}

// Write renders the response and flushes it at once. The status line starts with the version's
// own bytes, so responding with the version of the request repeats it exactly.
func (s *Serializer) Write(version proto.Version, response Response) error {
	s.appendProtocol(version)
	s.appendStatus(response.Code)

	if len(s.server) > 0 {
		s.appendKnownHeader("Server: ", s.server)
	}

	if response.Close {
		s.appendKnownHeader("Connection: ", "close")
	}

	if len(response.ContentType) > 0 {
		s.appendKnownHeader("Content-Type: ", response.ContentType)
	}

	s.buff = append(s.buff, "Content-Length: "...)
	s.buff = strconv.AppendInt(s.buff, int64(len(response.Body)), 10)
	s.crlf()
	s.crlf()

	if !response.OmitBody {
		s.buff = append(s.buff, response.Body...)
	}

	err := s.writer.Write(s.buff)
	s.cleanup()

	return err
}

func (s *Serializer) appendProtocol(version proto.Version) {
	if version == nil {
		// in case the request method or target were malformed, parser had no chance of reaching
		// the version.
		version = proto.HTTP11
	}

	s.buff = version.AppendTo(s.buff)
	s.sp()
}

func (s *Serializer) appendStatus(code status.Code) {
	s.buff = status.AppendCode(s.buff, code)
	s.sp()
	s.buff = append(s.buff, status.Text(code)...)
	s.crlf()
}

func (s *Serializer) appendKnownHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

// cleanup drops the buffer if it has grown past the maximal size after a big response.
func (s *Serializer) cleanup() {
	if cap(s.buff) > s.cfg.NET.WriteBufferSize.Maximal {
		s.buff = make([]byte, 0, s.cfg.NET.WriteBufferSize.Default)
		return
	}

	s.buff = s.buff[:0]
}
