package requestgen

import (
	"strings"

	"github.com/dchest/uniuri"
)

// Headers returns n random header lines joined by CRLF, the last one being the Host.
func Headers(n int) string {
	if n == 0 {
		return ""
	}

	headers := make([]string, 0, n)
	for i := 0; i < n-1; i++ {
		name := uniuri.NewLen(16)
		headers = append(headers, name+": "+strings.Repeat("b", 100))
	}

	return strings.Join(append(headers, "Host: localhost"), "\r\n")
}

func Generate(target, version, headers string) []byte {
	request := "GET " + target + " " + version + "\r\n"
	if len(headers) > 0 {
		request += headers + "\r\n"
	}

	return []byte(request + "\r\n")
}

// Disperse splits the data into chunks of n bytes. The last one may be shorter.
func Disperse(data []byte, n int) (parts [][]byte) {
	for i := 0; i < len(data); i += n {
		end := i + n
		if end > len(data) {
			end = len(data)
		}

		parts = append(parts, data[i:end])
	}

	return parts
}
