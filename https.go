package protover

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"
)

const (
	cacheDirName     = "protover-autocert"
	selfSignedCert   = "localhost.crt"
	selfSignedKey    = "localhost.key"
	selfSignedExpiry = 365 * 24 * time.Hour
)

// cacheDir returns the configured directory, falling back to the user cache directory.
func cacheDir(configured string) string {
	if configured != "" {
		return configured
	}

	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, cacheDirName)
	}

	return filepath.Join(os.TempDir(), cacheDirName)
}

func tlsListener(cert, key string) ListenerConstructor {
	return func(network, addr string) (net.Listener, error) {
		certificate, err := tls.LoadX509KeyPair(cert, key)
		if err != nil {
			return nil, errors.Wrap(err, "load certificate")
		}

		return tls.Listen(network, addr, &tls.Config{
			Certificates: []tls.Certificate{certificate},
		})
	}
}

func autoTLSListener(logger zerolog.Logger, cache string, domains ...string) ListenerConstructor {
	return func(network, addr string) (net.Listener, error) {
		m := &autocert.Manager{
			Prompt: autocert.AcceptTOS,
		}

		if len(domains) > 0 {
			m.HostPolicy = autocert.HostWhitelist(domains...)
		}

		if err := os.MkdirAll(cache, 0o700); err != nil {
			logger.Warn().Err(err).Str("dir", cache).Msg("auto HTTPS: not using a cache")
		} else {
			m.Cache = autocert.DirCache(cache)
		}

		return tls.Listen(network, addr, m.TLSConfig())
	}
}

// generateSelfSignedCert stores a certificate for localhost in the directory, unless a
// certificate pair is already there.
func generateSelfSignedCert(dir string, now time.Time) (cert, key string, err error) {
	cert = filepath.Join(dir, selfSignedCert)
	key = filepath.Join(dir, selfSignedKey)

	if fileExists(cert) && fileExists(key) {
		return cert, key, nil
	}

	if err = os.MkdirAll(dir, 0o700); err != nil {
		return "", "", errors.Wrap(err, "create certificate directory")
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", errors.Wrap(err, "generate key")
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(now.UnixNano()),
		Subject:               pkix.Name{Organization: []string{"Localhost"}},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:             now,
		NotAfter:              now.Add(selfSignedExpiry),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return "", "", errors.Wrap(err, "create certificate")
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", errors.Wrap(err, "marshal key")
	}

	if err = writePEM(cert, "CERTIFICATE", certDER); err != nil {
		return "", "", err
	}

	if err = writePEM(key, "PRIVATE KEY", privDER); err != nil {
		return "", "", err
	}

	return cert, key, nil
}

func writePEM(filename, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})

	return errors.Wrapf(os.WriteFile(filename, data, 0o600), "write %s", filename)
}

func fileExists(filename string) bool {
	stat, err := os.Stat(filename)

	return err == nil && !stat.IsDir()
}
