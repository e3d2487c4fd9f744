package protover

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/indigo-web/protover/config"
	"github.com/indigo-web/protover/internal/address"
	"github.com/indigo-web/protover/internal/logging"
	"github.com/indigo-web/protover/internal/server/http"
	"github.com/indigo-web/protover/internal/server/tcp"
)

var (
	errShutdown         = errors.New("shutdown requested")
	errGracefulShutdown = errors.New("graceful shutdown requested")
)

type ListenerConstructor func(network, addr string) (net.Listener, error)

type Listener struct {
	Addr        string
	Constructor ListenerConstructor
	TLS         bool
}

// App binds the version-reporting server to any number of listeners.
type App struct {
	cfg       *config.Config
	logger    zerolog.Logger
	clock     clock.Clock
	hooks     hooks
	listeners []Listener
	errCh     chan error

	mu    sync.Mutex
	addrs []net.Addr
}

// New returns a new App instance. Nil config means config.Default().
func New(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}

	return &App{
		cfg:    cfg,
		logger: logging.New(cfg.Name, cfg.Log),
		clock:  clock.New(),
		errCh:  make(chan error, 1),
	}
}

// WithLogger replaces the logger built from the config.
func (a *App) WithLogger(logger zerolog.Logger) *App {
	a.logger = logger
	return a
}

// NotifyOnStart calls the callback at the moment, when all the listeners are bound.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when all the servers are down. It's guaranteed,
// that at the moment as the callback is called, the server isn't able to accept any new connections
// and all the clients are already disconnected
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Listen adds a new plain listener. net.Listen is used if no constructor is passed.
func (a *App) Listen(addr string, optionalConstructor ...ListenerConstructor) *App {
	a.listeners = append(a.listeners, Listener{
		Addr:        address.Normalize(addr),
		Constructor: constructorOr(optionalConstructor, net.Listen),
	})

	return a
}

func (a *App) TLS(addr string, constructor ListenerConstructor) *App {
	a.listeners = append(a.listeners, Listener{
		Addr:        address.Normalize(addr),
		Constructor: constructor,
		TLS:         true,
	})

	return a
}

func (a *App) HTTPS(addr, cert, key string) *App {
	return a.TLS(addr, tlsListener(cert, key))
}

// AutoHTTPS obtains certificates via ACME for the domains. For local addresses, a self-signed
// certificate is generated instead.
func (a *App) AutoHTTPS(addr string, domains ...string) *App {
	cache := cacheDir(a.cfg.TLS.CacheDir)

	if address.IsLocalhost(addr) {
		cert, key, err := generateSelfSignedCert(cache, a.clock.Now())
		if err != nil {
			a.logger.Warn().Err(err).Str("addr", addr).Msg("can't generate self-signed certificate, disabling TLS")
			return a
		}

		return a.HTTPS(addr, cert, key)
	}

	return a.TLS(addr, autoTLSListener(a.logger, cache, domains...))
}

// Addrs returns the addresses of bound listeners. It's empty until the application is started.
func (a *App) Addrs() []net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]net.Addr(nil), a.addrs...)
}

// Serve binds the listeners from the config along with the ones added via Listen, TLS, HTTPS
// and AutoHTTPS and serves them until Stop or GracefulStop is called or any of them fails.
// Stopping on demand results in a nil error.
func (a *App) Serve() error {
	a.applyConfig()

	if len(a.listeners) == 0 {
		return errors.New("no listeners to serve")
	}

	servers, err := a.getServers()
	if err != nil {
		return err
	}

	return a.run(servers)
}

func (a *App) applyConfig() {
	if a.cfg.NET.Addr != "" {
		a.Listen(a.cfg.NET.Addr)
	}

	switch tlsCfg := a.cfg.TLS; {
	case tlsCfg.Addr == "":
	case tlsCfg.Cert != "":
		a.HTTPS(tlsCfg.Addr, tlsCfg.Cert, tlsCfg.Key)
	default:
		a.AutoHTTPS(tlsCfg.Addr, tlsCfg.AutoCert...)
	}
}

func (a *App) getServers() ([]*tcp.Server, error) {
	servers := make([]*tcp.Server, 0, len(a.listeners))
	httpServer := http.NewServer(a.cfg, a.logger, a.clock)

	for _, listener := range a.listeners {
		sock, err := listener.Constructor("tcp", listener.Addr)
		if err != nil {
			for _, server := range servers {
				_ = server.Stop()
			}

			return nil, errors.Wrapf(err, "listen %s", listener.Addr)
		}

		a.logger.Info().
			Str("addr", sock.Addr().String()).
			Bool("tls", listener.TLS).
			Msg("listening")

		servers = append(servers, tcp.NewServer(sock, httpServer.Serve))
	}

	a.mu.Lock()
	for _, server := range servers {
		a.addrs = append(a.addrs, server.Addr())
	}
	a.mu.Unlock()

	return servers, nil
}

func (a *App) run(servers []*tcp.Server) error {
	var (
		failSilently atomic.Bool
		wg           sync.WaitGroup
	)

	for _, server := range servers {
		wg.Add(1)
		go func(server *tcp.Server) {
			defer wg.Done()
			err := server.Start()

			if failSilently.Swap(true) {
				return
			}

			a.errCh <- err
		}(server)
	}

	callIfNotNil(a.hooks.OnStart)
	err := <-a.errCh
	failSilently.Store(true)

	for _, server := range servers {
		if errors.Is(err, errGracefulShutdown) {
			// stop listening to new clients and process till the end all the old ones
			_ = server.GracefulShutdown()
		} else {
			_ = server.Stop()
		}
	}

	wg.Wait()
	a.drain()
	callIfNotNil(a.hooks.OnStop)

	if errors.Is(err, errShutdown) || errors.Is(err, errGracefulShutdown) {
		a.logger.Info().Msg("stopped")
		return nil
	}

	a.logger.Error().Err(err).Msg("server failed")

	return err
}

// drain drops a stop request which arrived after the servers went down on their own.
func (a *App) drain() {
	select {
	case <-a.errCh:
	default:
	}
}

// GracefulStop stops accepting new connections, but keeps serving old ones.
//
// NOTE: the call isn't blocking. So by that, after the method returned, the server
// will be still working
func (a *App) GracefulStop() {
	a.notify(errGracefulShutdown)
}

// Stop stops the whole application immediately.
//
// NOTE: the call isn't blocking. So by that, after the method returned, the server
// will still be working
func (a *App) Stop() {
	a.notify(errShutdown)
}

func (a *App) notify(err error) {
	select {
	case a.errCh <- err:
	default:
	}
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}

func constructorOr(optionals []ListenerConstructor, otherwise ListenerConstructor) ListenerConstructor {
	if len(optionals) == 0 || optionals[0] == nil {
		return otherwise
	}

	return optionals[0]
}
