package method

type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
)

var names = [...]string{
	GET: "GET", HEAD: "HEAD", POST: "POST", PUT: "PUT", DELETE: "DELETE",
	CONNECT: "CONNECT", OPTIONS: "OPTIONS", TRACE: "TRACE", PATCH: "PATCH",
}

// List contains all the recognized HTTP methods, sorted by their integer value.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

var byName = func() map[string]Method {
	m := make(map[string]Method, len(List))
	for _, method := range List {
		m[names[method]] = method
	}

	return m
}()

func (m Method) String() string {
	if m == Unknown || int(m) >= len(names) {
		return "UNKNOWN"
	}

	return names[m]
}

// Parse is case-sensitive, as method tokens are. Anything unrecognized is Unknown.
func Parse(str string) Method {
	return byName[str]
}
