package mcp

import "github.com/sodl-lang/sodlc/pkg/protocol"

type Request = protocol.JSONRPCRequest
type Response = protocol.JSONRPCResponse
type Tool = protocol.Tool
type Resource = protocol.Resource
