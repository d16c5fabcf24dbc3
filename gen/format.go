package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/imports"
)

// Prints the generated declarations below a fixed header and import
// block and runs the result through the imports formatter. The
// declarations still carry their template positions, so they are
// printed with the template file set to keep the original layout.
func printDecls(decls []ast.Decl, savePath, packageName string) ([]byte, error) {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "// Autogenerated by github.com/snonky/pocketbase-polymodels. Do not edit.\n")
	fmt.Fprintf(buf, "package %v\n\n", packageName)
	buf.WriteString("import (\n\t\"github.com/pocketbase/pocketbase/core\"\n)\n\n")

	for _, decl := range decls {
		if err := format.Node(buf, templateFset, decl); err != nil {
			return nil, err
		}
		buf.WriteString("\n\n")
	}

	sourceCode, err := imports.Process(savePath, buf.Bytes(), nil)
	if err != nil {
		return nil, err
	}

	return sourceCode, nil
}

// Returns true if the given string can be used as a package name.
func validatePackageName(packageName string) bool {
	packageDecl := fmt.Sprintf("package %v", packageName)
	_, err := parser.ParseFile(token.NewFileSet(), "x.go", packageDecl, parser.SkipObjectResolution)

	return err == nil
}
