// Package gen generates typed record proxies for the types of a
// built hierarchy. Each concrete type gets a proxy struct plus a
// getter per one-to-one child relation, so the first hop of every
// accessor chain is also reachable through type safe code.
package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"

	"github.com/go-toolsmith/astcopy"
	"github.com/iancoleman/strcase"
	"github.com/snonky/pocketbase-polymodels"
	"golang.org/x/tools/go/ast/astutil"
)

var (
	templateFset *token.FileSet

	structTemplate *ast.GenDecl

	collectionNameGetterTemplate,
	childGetterTemplate *ast.FuncDecl
)

func init() {
	if err := loadTemplateASTs(); err != nil {
		panic("the template ASTs could not be parsed")
	}
}

func loadTemplateASTs() error {
	templateFset = token.NewFileSet()
	opts := parser.SkipObjectResolution
	f, err := parser.ParseFile(templateFset, ".", proxyTemplateCode, opts)
	if err != nil {
		return err
	}

	structTemplate = f.Decls[0].(*ast.GenDecl)
	collectionNameGetterTemplate = f.Decls[1].(*ast.FuncDecl)
	childGetterTemplate = f.Decls[2].(*ast.FuncDecl)

	return nil
}

// Generate creates the proxy source code for every non-abstract type
// of the hierarchy and returns it formatted, ready to be saved under
// the file name savePath.
func Generate(hierarchy *polymodels.Hierarchy, savePath, packageName string) ([]byte, error) {
	if !validatePackageName(packageName) {
		errMsg := fmt.Sprintf("The package name %v is not valid.", packageName)
		return nil, errors.New(errMsg)
	}

	decls := proxiesFromHierarchy(hierarchy)

	return printDecls(decls, savePath, packageName)
}

// Creates a proxy struct for every non-abstract type, a collection
// name getter and one child getter per single-hop accessor entry.
// Multi-hop descendants get no getter because their lookup can not be
// expressed as a single relation hop; they stay reachable through
// the caster.
func proxiesFromHierarchy(hierarchy *polymodels.Hierarchy) []ast.Decl {
	decls := make([]ast.Decl, 0, 25)

	for _, typ := range hierarchy.Types() {
		if typ.IsAbstract() {
			continue
		}

		decls = append(decls, newProxyDecl(typ.Name()))
		decls = append(decls, newCollectionNameGetter(typ))

		for _, sub := range typ.Subtypes() {
			accessor, _ := typ.Accessor(sub)
			if accessor.Proxy != nil || len(accessor.Steps) == 0 {
				continue
			}
			if len(accessor.Steps) > 1 {
				warnMsg := fmt.Sprintf(
					"Warning: `%v` is more than one relation hop below `%v`. Skipping generation of a getter; the type stays reachable through a cast.",
					sub.Name(), typ.Name(),
				)
				log.Println(warnMsg)
				continue
			}
			decls = append(decls, newChildGetter(typ, sub, accessor.Steps[0]))
		}
	}

	return decls
}

func newProxyDecl(name string) *ast.GenDecl {
	proxy := astcopy.GenDecl(structTemplate)
	proxy.Specs[0].(*ast.TypeSpec).Name.Name = name

	return proxy
}

func newCollectionNameGetter(typ *polymodels.Type) *ast.FuncDecl {
	decl := astcopy.FuncDecl(collectionNameGetterTemplate)
	adaptFuncTemplate(decl, typ.Name(), "CollectionName", typ.Collection().Name, "")

	return decl
}

func newChildGetter(typ, sub *polymodels.Type, step polymodels.Step) *ast.FuncDecl {
	decl := astcopy.FuncDecl(childGetterTemplate)
	funcName := strcase.ToCamel(sub.Name())
	adaptFuncTemplate(decl, typ.Name(), funcName, step.ExpandKey, sub.Name())

	return decl
}

// Scans a declaration template for a set of pre-defined identifiers
// and literals and replaces them with the given values.
func adaptFuncTemplate(
	template *ast.FuncDecl,
	receiverName,
	funcName,
	key,
	fieldTypeName string,
) {
	adapter := func(c *astutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.Ident:
			switch n.Name {
			case "StructName":
				n.Name = receiverName
			case "FuncName":
				n.Name = funcName
			case "FieldType":
				n.Name = fieldTypeName
			}
		case *ast.BasicLit:
			if n.Value == "\"key\"" {
				n.Value = fmt.Sprintf("\"%v\"", key)
			}
		}
		return true
	}

	astutil.Apply(template, adapter, nil)
}
