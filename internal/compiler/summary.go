package compiler

import "github.com/sodl-lang/sodlc/internal/analyzer"

// Summary is the read-only structure projection reporting tools consume.
type Summary struct {
	SystemCount    int             `json:"systemCount"`
	InterfaceCount int             `json:"interfaceCount"`
	ModuleCount    int             `json:"moduleCount"`
	PipelineCount  int             `json:"pipelineCount"`
	PerSystem      []SystemSummary `json:"perSystem"`
}

// SystemSummary describes one top-level system, counting only the
// declarations nested in its body.
type SystemSummary struct {
	Name           string   `json:"name"`
	Version        string   `json:"version,omitempty"`
	Extends        string   `json:"extends,omitempty"`
	InterfaceCount int      `json:"interfaceCount"`
	ModuleCount    int      `json:"moduleCount"`
	PipelineCount  int      `json:"pipelineCount"`
	Modules        []string `json:"modules,omitempty"`
}

// StructureSummary projects counts out of a resolved program. Totals include
// both top-level declarations and those nested inside systems.
func StructureSummary(p *analyzer.ResolvedProgram) *Summary {
	s := &Summary{}
	if p == nil {
		return s
	}
	s.SystemCount = len(p.Systems)
	s.InterfaceCount = len(p.Interfaces)
	s.ModuleCount = len(p.Modules)
	s.PipelineCount = len(p.Pipelines)

	for _, rs := range p.Systems {
		d := rs.Decl
		entry := SystemSummary{
			Name:           d.Name,
			Version:        rs.Version,
			Extends:        d.Extends,
			InterfaceCount: len(d.Interfaces),
			ModuleCount:    len(d.Modules),
			PipelineCount:  len(d.Pipelines),
		}
		for _, m := range d.Modules {
			entry.Modules = append(entry.Modules, m.Name)
		}
		s.PerSystem = append(s.PerSystem, entry)
	}
	return s
}
