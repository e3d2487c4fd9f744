package http1

import (
	"bytes"
	"fmt"

	"github.com/indigo-web/protover/config"
	"github.com/indigo-web/protover/http/method"
	"github.com/indigo-web/protover/http/proto"
	"github.com/indigo-web/protover/http/status"
	"github.com/indigo-web/protover/internal/buffer"
	"github.com/indigo-web/utils/uf"
)

type State uint8

const (
	Pending State = iota
	HeadersCompleted
	Error
)

type parserState uint8

const (
	eMethod parserState = iota + 1
	eTarget
	eVersion
	eHeaderLineStart
	eHeaderLine
	eHeadersCR
)

// RequestLine is what the parser extracts from a request. Target points into the parser's
// buffer and stays valid until the next call to Parse, while Version owns its bytes.
type RequestLine struct {
	Method  method.Method
	Target  string
	Version proto.Version
}

func (r *RequestLine) Reset() {
	r.Method = method.Unknown
	r.Target = ""
	r.Version = nil
}

// Parser is a stream-based parser of the request line. It delimits the version token and
// passes it to proto.FromWire. The header section is consumed line by line, but the lines
// themselves are only counted and measured.
type Parser struct {
	state       parserState
	headerLines int
	lineSize    int
	cfg         *config.Config
	request     *RequestLine
	requestLine *buffer.Buffer
}

func NewParser(cfg *config.Config, request *RequestLine, requestLine *buffer.Buffer) *Parser {
	return &Parser{
		state:       eMethod,
		cfg:         cfg,
		request:     request,
		requestLine: requestLine,
	}
}

// Parse consumes the next chunk of data. Once the headers are completed, the rest of the data
// is returned as extra and belongs to the next request.
func (p *Parser) Parse(data []byte) (state State, extra []byte, err error) {
	request := p.request
	requestLine := p.requestLine

	switch p.state {
	case eMethod:
		goto method
	case eTarget:
		goto target
	case eVersion:
		goto version
	case eHeaderLineStart:
		goto headerLineStart
	case eHeaderLine:
		goto headerLine
	case eHeadersCR:
		goto headersCR
	default:
		panic("unreachable code")
	}

method:
	for i := 0; i < len(data); i++ {
		if data[i] == ' ' {
			var methodValue []byte
			if requestLine.SegmentLength() == 0 {
				methodValue = data[:i]
			} else {
				if !requestLine.Append(data[:i]) {
					return Error, nil, status.ErrMethodNotImplemented
				}

				methodValue = requestLine.Preview()
				requestLine.Discard(0)
			}

			if len(methodValue) == 0 {
				return Error, nil, status.ErrBadRequest
			}

			request.Method = method.Parse(uf.B2S(methodValue))
			if request.Method == method.Unknown {
				return Error, nil, status.ErrMethodNotImplemented
			}

			data = data[i+1:]
			goto target
		}
	}

	if !requestLine.Append(data) {
		return Error, nil, status.ErrMethodNotImplemented
	}

	p.state = eMethod
	return Pending, nil, nil

target:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; {
		case char == ' ':
			if !requestLine.Append(data[:i]) {
				return Error, nil, status.ErrTooLongRequestLine
			}

			request.Target = uf.B2S(requestLine.Finish())
			if len(request.Target) == 0 {
				return Error, nil, status.ErrBadRequest
			}

			data = data[i+1:]
			goto version
		case isProhibitedChar(char):
			return Error, nil, status.ErrBadRequest
		}
	}

	if !requestLine.Append(data) {
		return Error, nil, status.ErrTooLongRequestLine
	}

	p.state = eTarget
	return Pending, nil, nil

version:
	if requestLine.SegmentLength() == 0 {
		if lf := bytes.IndexByte(data, '\n'); lf != -1 {
			if request.Version, err = proto.FromWire(stripCR(data[:lf])); err != nil {
				return Error, nil, fmt.Errorf("%w: %w", status.ErrBadRequest, err)
			}

			data = data[lf+1:]
			goto headerLineStart
		}
	}

	// the token is split among reads, so it's glued in the buffer first
	{
		scanned := requestLine.Readable()
		chunk := data[:min(len(data), requestLine.Free())]
		requestLine.Append(chunk)

		lf := requestLine.IndexByte(scanned, requestLine.Readable(), '\n')
		if lf == -1 {
			if len(chunk) < len(data) {
				return Error, nil, status.ErrTooLongRequestLine
			}

			p.state = eVersion
			return Pending, nil, nil
		}

		// whatever follows the LF belongs to the headers
		requestLine.Trunc(requestLine.Readable() - lf)
		data = data[lf-scanned+1:]

		if request.Version, err = proto.FromWire(stripCR(requestLine.Finish())); err != nil {
			return Error, nil, fmt.Errorf("%w: %w", status.ErrBadRequest, err)
		}
	}

headerLineStart:
	if len(data) == 0 {
		p.state = eHeaderLineStart
		return Pending, nil, nil
	}

	switch data[0] {
	case '\n':
		p.cleanup()
		return HeadersCompleted, data[1:], nil
	case '\r':
		data = data[1:]
		goto headersCR
	}

	if p.headerLines++; p.headerLines > p.cfg.Headers.MaxLines {
		return Error, nil, status.ErrHeaderFieldsTooLarge
	}

	p.lineSize = 0
	// fallthrough to headerLine

headerLine:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if p.lineSize += len(data); p.lineSize > p.cfg.Headers.MaxLineSize {
				return Error, nil, status.ErrHeaderFieldsTooLarge
			}

			p.state = eHeaderLine
			return Pending, nil, nil
		}

		if p.lineSize += lf; p.lineSize > p.cfg.Headers.MaxLineSize {
			return Error, nil, status.ErrHeaderFieldsTooLarge
		}

		data = data[lf+1:]
		goto headerLineStart
	}

headersCR:
	if len(data) == 0 {
		p.state = eHeadersCR
		return Pending, nil, nil
	}

	if data[0] != '\n' {
		return Error, nil, status.ErrBadRequest
	}

	p.cleanup()
	return HeadersCompleted, data[1:], nil
}

// Reset brings the parser back to the initial state, dropping whatever was partially parsed.
func (p *Parser) Reset() {
	p.cleanup()
	p.request.Reset()
}

func (p *Parser) cleanup() {
	p.state = eMethod
	p.headerLines = 0
	p.lineSize = 0
	p.requestLine.Clear()
}

func stripCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}

	return b
}

func isProhibitedChar(c byte) bool {
	return c < 0x20 || c == 0x7f
}
