// Package mcp republishes the compiler entry points as MCP tools over a
// newline-delimited JSON-RPC stdio stream, and serves the embedded language
// reference as read-only resources.
package mcp

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/sodl-lang/sodlc/pkg/protocol"
)

type Server struct {
	registry *Registry
	handler  *Handler
}

func NewServer(registry *Registry) *Server {
	return &Server{
		registry: registry,
		handler:  NewHandler(registry),
	}
}

func (s *Server) HandleRequest(req *Request) *Response {
	return s.handler.Handle(req)
}

// ProcessStream reads newline-delimited JSON-RPC requests until reader is
// exhausted, writing one response line per request.
func (s *Server) ProcessStream(reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(writer)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp := &Response{
				JSONRPC: "2.0",
				ID:      nil,
				Error: &protocol.JSONRPCError{
					Code:    -32700,
					Message: "Parse error",
				},
			}
			encoder.Encode(resp)
			continue
		}

		resp := s.HandleRequest(&req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func (s *Server) Registry() *Registry {
	return s.registry
}
