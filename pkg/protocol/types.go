package protocol

type JSONRPCRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id,omitempty"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// CompileParams is the argument shape shared by the daemon methods and the
// MCP tools: inline source labeled with a display name.
type CompileParams struct {
	Source string `json:"source"`
	Name   string `json:"name,omitempty"`
}

type StatusResult struct {
	Version      string `json:"version"`
	TotalFiles   int    `json:"totalFiles"`
	FailingFiles int    `json:"failingFiles"`
	CacheSize    int    `json:"cacheSize"`
	UptimeSecs   int64  `json:"uptimeSecs"`
}
