package httptest

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Header struct {
	Key, Value string
}

type Response struct {
	Proto   string
	Code    int
	Status  string
	Headers []Header
	Body    string
}

// Value returns the value of the first header with the key, compared case-insensitively.
func (r Response) Value(key string) string {
	for _, header := range r.Headers {
		if strings.EqualFold(header.Key, key) {
			return header.Value
		}
	}

	return ""
}

// Parse parses a single response with the body delimited by Content-Length. Whatever follows
// the body is returned as rest.
func Parse(raw string) (response Response, rest string, err error) {
	var found bool

	response.Proto, raw, found = strings.Cut(raw, " ")
	if !found || len(raw) == 0 {
		return response, "", errors.New("bad status line: lacking code and status")
	}

	var code string
	code, raw, found = strings.Cut(raw, " ")
	if response.Code, err = strconv.Atoi(code); err != nil {
		return response, "", errors.Wrap(err, "bad status code")
	}

	if !found || len(raw) == 0 {
		return response, "", errors.New("bad status line: lacking status text")
	}

	response.Status, raw, found = strings.Cut(raw, "\r\n")
	if !found {
		return response, "", errors.New("bad response: only status line is presented")
	}

	for {
		var headerLine string
		headerLine, raw, found = strings.Cut(raw, "\r\n")
		if !found {
			return response, "", errors.Errorf("bad header line %q: no breaking CRLF", headerLine)
		}

		if len(headerLine) == 0 {
			break
		}

		key, value, ok := strings.Cut(headerLine, ": ")
		if !ok {
			return response, "", errors.Errorf("bad header %q: no value", headerLine)
		}

		response.Headers = append(response.Headers, Header{Key: key, Value: value})
	}

	length, err := strconv.Atoi(response.Value("Content-Length"))
	if err != nil {
		return response, "", errors.Wrap(err, "bad Content-Length")
	}

	if len(raw) < length {
		return response, "", errors.Errorf("body is incomplete: want %d bytes, got %d", length, len(raw))
	}

	response.Body = raw[:length]

	return response, raw[length:], nil
}

// ParseAll parses pipelined responses until the data is over.
func ParseAll(raw string) (responses []Response, err error) {
	for len(raw) > 0 {
		var response Response
		if response, raw, err = Parse(raw); err != nil {
			return responses, err
		}

		responses = append(responses, response)
	}

	return responses, nil
}
