// Package daemon serves the compiler entry points over a unix-socket
// JSON-RPC connection, fronted by the shared result cache and backed by the
// compile-result store for status reporting.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/sodl-lang/sodlc/internal/cache"
	"github.com/sodl-lang/sodlc/internal/compiler"
	"github.com/sodl-lang/sodlc/internal/logger"
	"github.com/sodl-lang/sodlc/internal/store"
	"github.com/sodl-lang/sodlc/pkg/protocol"
	"github.com/sodl-lang/sodlc/pkg/version"
)

var log = logger.ForComponent("daemon")

type Daemon struct {
	socketPath   string
	listener     net.Listener
	results      *cache.Cache
	index        *store.Store
	connections  map[*jsonrpc2.Conn]bool
	connMu       sync.Mutex
	shutdown     chan struct{}
	shutdownOnce sync.Once
	startTime    time.Time
}

// New builds a daemon. index may be nil; status then reports zero files.
func New(socketPath string, results *cache.Cache, index *store.Store) *Daemon {
	return &Daemon{
		socketPath:  socketPath,
		results:     results,
		index:       index,
		connections: make(map[*jsonrpc2.Conn]bool),
		shutdown:    make(chan struct{}),
		startTime:   time.Now(),
	}
}

// Start listens on the unix socket and blocks until SIGINT or SIGTERM.
func (d *Daemon) Start(ctx context.Context) error {
	if err := os.RemoveAll(d.socketPath); err != nil {
		return fmt.Errorf("failed to remove socket: %w", err)
	}

	socketDir := filepath.Dir(d.socketPath)
	if err := os.MkdirAll(socketDir, 0755); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	d.listener = listener

	if err := os.Chmod(d.socketPath, 0700); err != nil {
		return fmt.Errorf("failed to chmod socket: %w", err)
	}

	log.Info("daemon listening", "socket", d.socketPath)

	go d.acceptConnections(ctx)
	d.handleSignals()

	return nil
}

func (d *Daemon) acceptConnections(ctx context.Context) {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
				continue
			}
		}

		stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
		rpcConn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(d.handle))

		d.connMu.Lock()
		d.connections[rpcConn] = true
		d.connMu.Unlock()

		go func() {
			<-rpcConn.DisconnectNotify()
			d.connMu.Lock()
			delete(d.connections, rpcConn)
			d.connMu.Unlock()
		}()
	}
}

func (d *Daemon) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "compile":
		params, err := compileParams(req)
		if err != nil {
			return nil, err
		}
		return d.compile(params), nil

	case "validateSyntax":
		params, err := compileParams(req)
		if err != nil {
			return nil, err
		}
		return compiler.ValidateSyntax(params.Source), nil

	case "structureSummary":
		params, err := compileParams(req)
		if err != nil {
			return nil, err
		}
		result := d.compile(params)
		return map[string]interface{}{
			"success":     result.Success,
			"diagnostics": result.Diagnostics,
			"summary":     compiler.StructureSummary(result.Resolved),
		}, nil

	case "status":
		return d.status(), nil

	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

func compileParams(req *jsonrpc2.Request) (protocol.CompileParams, error) {
	var params protocol.CompileParams
	if req.Params == nil {
		return params, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return params, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	if params.Source == "" {
		return params, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "source is required"}
	}
	if params.Name == "" {
		params.Name = "<input>"
	}
	return params, nil
}

func (d *Daemon) compile(params protocol.CompileParams) *compiler.CompileResult {
	if d.results == nil {
		return compiler.CompileText(params.Source, params.Name)
	}
	key := cache.Key([]byte(params.Source))
	if result, ok := d.results.Get(key); ok {
		return result
	}
	result := compiler.CompileText(params.Source, params.Name)
	d.results.Add(key, result)
	return result
}

func (d *Daemon) status() protocol.StatusResult {
	st := protocol.StatusResult{
		Version:    version.Version,
		UptimeSecs: int64(time.Since(d.startTime).Seconds()),
	}
	if d.results != nil {
		st.CacheSize = d.results.Len()
	}
	if d.index != nil {
		if total, failing, err := d.index.Stats(); err == nil {
			st.TotalFiles = total
			st.FailingFiles = failing
		}
	}
	return st
}

func (d *Daemon) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	d.Shutdown()
}

func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdown)

		if d.listener != nil {
			d.listener.Close()
		}

		d.connMu.Lock()
		for conn := range d.connections {
			conn.Close()
		}
		d.connMu.Unlock()

		os.Remove(d.socketPath)
	})
}

func (d *Daemon) SocketPath() string {
	return d.socketPath
}

func (d *Daemon) Uptime() time.Duration {
	return time.Since(d.startTime)
}
