package ast

// Visitor receives each declaration in document order. Nested declarations
// are visited after their enclosing system, with the system passed as the
// enclosing context (nil at top level).
type Visitor interface {
	VisitSystem(*SystemDecl)
	VisitTemplate(*TemplateDecl)
	VisitInterface(decl *InterfaceDecl, enclosing *SystemDecl)
	VisitModule(decl *ModuleDecl, enclosing *SystemDecl)
	VisitPolicy(decl *PolicyDecl, enclosing *SystemDecl)
	VisitPipeline(decl *PipelineDecl, enclosing *SystemDecl)
}

// Walk dispatches every declaration in d to v.
func Walk(d *Document, v Visitor) {
	for _, decl := range d.Decls {
		switch n := decl.(type) {
		case *TemplateDecl:
			v.VisitTemplate(n)
		case *SystemDecl:
			v.VisitSystem(n)
			for _, it := range n.Interfaces {
				v.VisitInterface(it, n)
			}
			for _, m := range n.Modules {
				v.VisitModule(m, n)
			}
			for _, p := range n.Policies {
				v.VisitPolicy(p, n)
			}
			for _, p := range n.Pipelines {
				v.VisitPipeline(p, n)
			}
		case *InterfaceDecl:
			v.VisitInterface(n, nil)
		case *ModuleDecl:
			v.VisitModule(n, nil)
		case *PolicyDecl:
			v.VisitPolicy(n, nil)
		case *PipelineDecl:
			v.VisitPipeline(n, nil)
		}
	}
}
