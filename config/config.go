package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type (
	RequestLineSize struct {
		Default int `toml:"default"`
		Maximal int `toml:"maximal"`
	}

	WriteBufferSize struct {
		Default int `toml:"default"`
		Maximal int `toml:"maximal"`
	}
)

type (
	RequestLine struct {
		// Size limits the buffer storing the request line in case it didn't arrive in a
		// single read. Setting the maximal boundary too low rejects long request targets
		// with 414 Request-URI Too Long.
		Size RequestLineSize `toml:"size"`
	}

	Headers struct {
		// MaxLines is the maximal number of header lines allowed per request. Their content
		// isn't interpreted, but they are counted.
		MaxLines int `toml:"max_lines"`
		// MaxLineSize limits a single header line, including a line split among reads.
		MaxLineSize int `toml:"max_line_size"`
	}

	NET struct {
		// Addr is the address the plain listener is bound to.
		Addr string `toml:"addr"`
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int `toml:"read_buffer_size"`
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration `toml:"read_timeout"`
		// WriteBufferSize stores the HTTP response, which is going to be transmitted.
		WriteBufferSize WriteBufferSize `toml:"write_buffer_size"`
	}

	TLS struct {
		// Addr enables an additional TLS listener when non-empty.
		Addr string `toml:"addr" test:"nullable"`
		// Cert and Key are paths to a PEM-encoded certificate pair. Either both or none.
		Cert string `toml:"cert" test:"nullable"`
		Key  string `toml:"key" test:"nullable"`
		// AutoCert lists domains to obtain certificates for via ACME, in case no
		// certificate pair is set.
		AutoCert []string `toml:"autocert" test:"nullable"`
		// CacheDir stores ACME certificates. Empty value picks the user cache directory.
		CacheDir string `toml:"cache_dir" test:"nullable"`
	}

	Log struct {
		// Level is one of zerolog's levels: trace, debug, info, warn, error, disabled.
		Level string `toml:"level"`
		// JSON disables the human-readable console output.
		JSON    bool `toml:"json" test:"nullable"`
		NoColor bool `toml:"no_color" test:"nullable"`
	}
)

// Config holds settings used across various parts of the server, mainly restrictions, limitations
// and pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	// Name is sent in the Server header and used as the logger's app field.
	Name        string      `toml:"name"`
	RequestLine RequestLine `toml:"request_line"`
	Headers     Headers     `toml:"headers"`
	NET         NET         `toml:"net"`
	TLS         TLS         `toml:"tls"`
	Log         Log         `toml:"log"`
}

// Default returns default config. Those are initially well-balanced, however maximal defaults
// are pretty permitting.
func Default() *Config {
	return &Config{
		Name: "protover",
		RequestLine: RequestLine{
			Size: RequestLineSize{
				Default: 2 * 1024,
				// allow at most 16kb of request line, which is effectively pretty much tolerant,
				// considering most web-entities limit it to 4-8kb.
				Maximal: 16 * 1024,
			},
		},
		Headers: Headers{
			MaxLines:    50,
			MaxLineSize: 8 * 1024,
		},
		NET: NET{
			Addr:           "0.0.0.0:8080",
			ReadBufferSize: 4 * 1024,
			ReadTimeout:    90 * time.Second,
			WriteBufferSize: WriteBufferSize{
				Default: 1024,
				Maximal: 64 * 1024,
			},
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a TOML file on top of the defaults, so keys missing in the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: load %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}

	return cfg, nil
}

// Decode is the same as Load, but reads the TOML document from a string.
func Decode(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.RequestLine.Size.Default <= 0:
		return errors.New("request_line.size.default must be positive")
	case c.RequestLine.Size.Maximal < c.RequestLine.Size.Default:
		return errors.New("request_line.size.maximal must not be less than the default")
	case c.Headers.MaxLines <= 0:
		return errors.New("headers.max_lines must be positive")
	case c.Headers.MaxLineSize <= 0:
		return errors.New("headers.max_line_size must be positive")
	case c.NET.ReadBufferSize <= 0:
		return errors.New("net.read_buffer_size must be positive")
	case c.NET.ReadTimeout <= 0:
		return errors.New("net.read_timeout must be positive")
	case c.NET.WriteBufferSize.Default <= 0:
		return errors.New("net.write_buffer_size.default must be positive")
	case c.NET.WriteBufferSize.Maximal < c.NET.WriteBufferSize.Default:
		return errors.New("net.write_buffer_size.maximal must not be less than the default")
	case (c.TLS.Cert == "") != (c.TLS.Key == ""):
		return errors.New("tls.cert and tls.key must be set together")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}

	return nil
}
