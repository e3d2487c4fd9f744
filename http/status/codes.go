package status

import "strconv"

type (
	Code   uint16
	Status string
)

// HTTP status codes the server responds with.
// See: https://www.iana.org/assignments/http-status-codes/http-status-codes.xhtml
const (
	OK                      Code = 200 // RFC 9110, 15.3.1
	BadRequest              Code = 400 // RFC 9110, 15.5.1
	RequestTimeout          Code = 408 // RFC 9110, 15.5.9
	RequestURITooLong       Code = 414 // RFC 9110, 15.5.15
	HeaderFieldsTooLarge    Code = 431 // RFC 6585, 5
	InternalServerError     Code = 500 // RFC 9110, 15.6.1
	NotImplemented          Code = 501 // RFC 9110, 15.6.2
	HTTPVersionNotSupported Code = 505 // RFC 9110, 15.6.6
)

var KnownCodes = []Code{
	OK, BadRequest, RequestTimeout, RequestURITooLong, HeaderFieldsTooLarge,
	InternalServerError, NotImplemented, HTTPVersionNotSupported,
}

// Text returns a text for the HTTP status code. It returns the empty
// string if the code is unknown.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case BadRequest:
		return "Bad Request"
	case RequestTimeout:
		return "Request Timeout"
	case RequestURITooLong:
		return "Request-URI Too Long"
	case HeaderFieldsTooLarge:
		return "Request Header Fields Too Large"
	case InternalServerError:
		return "Internal Server Error"
	case NotImplemented:
		return "Not Implemented"
	case HTTPVersionNotSupported:
		return "HTTP Version Not Supported"
	}

	return ""
}

// AppendCode appends the decimal status code.
func AppendCode(dst []byte, code Code) []byte {
	return strconv.AppendUint(dst, uint64(code), 10)
}
