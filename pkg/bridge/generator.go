package bridge

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/getmockd/mockstore/internal/id"
	"github.com/getmockd/mockstore/pkg/mockstore"
)

// TemplateGenerator builds a generator from static field values and computed
// fields. Computed fields are expr expressions evaluated per entity with
// id, typeName and uuid() in scope, e.g. "'user-' + id".
//
// Expressions are compiled once; a compile error is returned immediately.
// A runtime evaluation error leaves the field null.
func TemplateGenerator(fields map[string]interface{}, computed map[string]string) (mockstore.Generator, error) {
	static := mockstore.Record(fields).Clone()

	names := make([]string, 0, len(computed))
	for name := range computed {
		names = append(names, name)
	}
	sort.Strings(names)

	programs := make(map[string]*vm.Program, len(computed))
	for _, name := range names {
		program, err := expr.Compile(computed[name], expr.Env(exprEnv(mockstore.GenerateContext{})))
		if err != nil {
			return nil, fmt.Errorf("compile computed field %q: %w", name, err)
		}
		programs[name] = program
	}

	return func(ctx mockstore.GenerateContext) mockstore.Record {
		rec := static.Clone()
		if rec == nil {
			rec = mockstore.Record{}
		}
		if len(programs) == 0 {
			return rec
		}
		env := exprEnv(ctx)
		for _, name := range names {
			val, err := expr.Run(programs[name], env)
			if err != nil {
				rec[name] = nil
				continue
			}
			rec[name] = val
		}
		return rec
	}, nil
}

func exprEnv(ctx mockstore.GenerateContext) map[string]interface{} {
	return map[string]interface{}{
		"id":       ctx.ID,
		"typeName": ctx.TypeName,
		"uuid":     id.UUID,
	}
}
