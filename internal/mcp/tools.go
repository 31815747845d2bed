package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/sodl-lang/sodlc/internal/cache"
	"github.com/sodl-lang/sodlc/internal/compiler"
	"github.com/sodl-lang/sodlc/pkg/protocol"
)

// compileCached runs the full pipeline through the shared result cache.
func compileCached(c *cache.Cache, source, name string) *compiler.CompileResult {
	if c == nil {
		return compiler.CompileText(source, name)
	}
	key := cache.Key([]byte(source))
	if result, ok := c.Get(key); ok {
		return result
	}
	result := compiler.CompileText(source, name)
	c.Add(key, result)
	return result
}

func decodeParams(input json.RawMessage) (protocol.CompileParams, error) {
	var params protocol.CompileParams
	if err := json.Unmarshal(input, &params); err != nil {
		return params, fmt.Errorf("failed to parse tool arguments: %w", err)
	}
	if params.Source == "" {
		return params, fmt.Errorf("source is required")
	}
	if params.Name == "" {
		params.Name = "<input>"
	}
	return params, nil
}

type CompileTool struct {
	cache *cache.Cache
}

func NewCompileTool(c *cache.Cache) *CompileTool {
	return &CompileTool{cache: c}
}

func (t *CompileTool) Name() string {
	return "compile_sodl"
}

func (t *CompileTool) Description() string {
	return "Compile SODL source through the full pipeline (lex, parse, analyze) and return success plus all diagnostics."
}

func (t *CompileTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"source": {"type": "string", "description": "SODL source text"},
			"name": {"type": "string", "description": "Display name for diagnostics"}
		},
		"required": ["source"]
	}`)
}

func (t *CompileTool) Execute(input json.RawMessage) (interface{}, error) {
	params, err := decodeParams(input)
	if err != nil {
		return nil, err
	}
	return compileCached(t.cache, params.Source, params.Name), nil
}

type ValidateSyntaxTool struct{}

func NewValidateSyntaxTool() *ValidateSyntaxTool {
	return &ValidateSyntaxTool{}
}

func (t *ValidateSyntaxTool) Name() string {
	return "validate_sodl_syntax"
}

func (t *ValidateSyntaxTool) Description() string {
	return "Lex and parse SODL source without semantic analysis; reports syntax validity, diagnostics and line count."
}

func (t *ValidateSyntaxTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"source": {"type": "string", "description": "SODL source text"}
		},
		"required": ["source"]
	}`)
}

func (t *ValidateSyntaxTool) Execute(input json.RawMessage) (interface{}, error) {
	params, err := decodeParams(input)
	if err != nil {
		return nil, err
	}
	return compiler.ValidateSyntax(params.Source), nil
}

type SummaryTool struct {
	cache *cache.Cache
}

func NewSummaryTool(c *cache.Cache) *SummaryTool {
	return &SummaryTool{cache: c}
}

func (t *SummaryTool) Name() string {
	return "get_structure_summary"
}

func (t *SummaryTool) Description() string {
	return "Compile SODL source and return the structure summary: system, interface, module and pipeline counts."
}

func (t *SummaryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"source": {"type": "string", "description": "SODL source text"},
			"name": {"type": "string", "description": "Display name for diagnostics"}
		},
		"required": ["source"]
	}`)
}

func (t *SummaryTool) Execute(input json.RawMessage) (interface{}, error) {
	params, err := decodeParams(input)
	if err != nil {
		return nil, err
	}
	result := compileCached(t.cache, params.Source, params.Name)
	return map[string]interface{}{
		"success":     result.Success,
		"diagnostics": result.Diagnostics,
		"summary":     compiler.StructureSummary(result.Resolved),
	}, nil
}

// RegisterDefaultTools wires the three compiler entry points into the
// registry.
func RegisterDefaultTools(registry *Registry, c *cache.Cache) error {
	for _, tool := range []ToolImpl{
		NewCompileTool(c),
		NewValidateSyntaxTool(),
		NewSummaryTool(c),
	} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
