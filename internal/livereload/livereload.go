// Package livereload tells a socket.io live-reload server that the output
// directory was rebuilt, so connected browsers can refresh.
package livereload

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/ngstatic/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// RebuildEvent is the socket.io event emitted after every build.
const RebuildEvent = "rebuild"

// Options configure the connection.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds Dial. Zero means 15 seconds.
	ConnectTimeout time.Duration
}

// Notifier holds one connected socket.
type Notifier struct {
	mu sync.Mutex
	io *socket.Socket
}

// Dial connects to the live-reload server and waits for the connection to be
// accepted.
func Dial(ctx context.Context, opts Options) (*Notifier, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL, "namespace", opts.Namespace)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse live reload URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported live reload URL scheme %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("live reload URL %q has no host", opts.URL)
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}

	sockOpts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		sockOpts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(namespace, sockOpts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Live reload socket connected.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connected <- err
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("live reload connection failed: %w", err)
		}
		logger.Info("🔌 Live reload connected.")
		return &Notifier{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for live reload connection", timeout)
	}
}

// Payload builds the data sent with RebuildEvent.
func Payload(files, failed []string) map[string]any {
	if files == nil {
		files = []string{}
	}
	if failed == nil {
		failed = []string{}
	}
	return map[string]any{"files": files, "failed": failed}
}

// Rebuilt emits RebuildEvent with the written and failed file names.
func (n *Notifier) Rebuilt(ctx context.Context, files, failed []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.io == nil {
		return
	}
	ctxlog.FromContext(ctx).Debug("Emitting live reload event.", "event", RebuildEvent, "files", len(files), "failed", len(failed))
	n.io.Emit(RebuildEvent, Payload(files, failed))
}

// Close disconnects the socket. It is safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.io != nil {
		n.io.Disconnect()
		n.io = nil
	}
}
