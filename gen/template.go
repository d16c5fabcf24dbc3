package gen

// DO NOT EDIT
// (unless you know what you are doing of course)
//
// If you know what you are doing, note this:
// The function loadTemplateASTs parses this syntactically correct
// code and saves the declaration AST nodes as templates.
// The function adaptFuncTemplate searches and replaces the
// relevant identifiers in the templates to create the actual
// source code.
var proxyTemplateCode = `package template

// 0: Proxy struct declaration
type StructName struct {
	core.BaseRecordProxy
}

// 1: Collection name getter declaration
func (p *StructName) FuncName() string {
	return "key"
}

// 2: One-to-one child relation getter declaration
func (p *StructName) FuncName() *FieldType {
	var proxy *FieldType
	if rels := p.ExpandedAll("key"); len(rels) > 0 {
		proxy = &FieldType{}
		proxy.SetProxyRecord(rels[0])
	}
	return proxy
}
`
