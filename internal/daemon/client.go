package daemon

import (
	"context"
	"fmt"
	"net"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/sodl-lang/sodlc/internal/compiler"
	"github.com/sodl-lang/sodlc/pkg/protocol"
)

// Client is the thin JSON-RPC client the CLI uses to talk to a running
// daemon.
type Client struct {
	conn *jsonrpc2.Conn
}

func Dial(ctx context.Context, socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
	rpcConn := jsonrpc2.NewConn(ctx, stream, noopHandler{})
	return &Client{conn: rpcConn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Compile(ctx context.Context, source, name string) (*compiler.CompileResult, error) {
	var result compiler.CompileResult
	err := c.conn.Call(ctx, "compile", protocol.CompileParams{Source: source, Name: name}, &result)
	if err != nil {
		return nil, fmt.Errorf("compile call: %w", err)
	}
	return &result, nil
}

func (c *Client) ValidateSyntax(ctx context.Context, source string) (*compiler.SyntaxResult, error) {
	var result compiler.SyntaxResult
	err := c.conn.Call(ctx, "validateSyntax", protocol.CompileParams{Source: source}, &result)
	if err != nil {
		return nil, fmt.Errorf("validateSyntax call: %w", err)
	}
	return &result, nil
}

func (c *Client) Status(ctx context.Context) (*protocol.StatusResult, error) {
	var result protocol.StatusResult
	if err := c.conn.Call(ctx, "status", nil, &result); err != nil {
		return nil, fmt.Errorf("status call: %w", err)
	}
	return &result, nil
}

// noopHandler ignores server-initiated requests; the daemon never sends any.
type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}
