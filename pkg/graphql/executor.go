package graphql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
)

// Executor executes GraphQL operations against registered resolver functions.
// Fields without a resolver read the same-named key from their parent value.
type Executor struct {
	schema    *Schema
	config    *GraphQLConfig
	mu        sync.RWMutex
	resolvers map[string]ResolverFunc // "Query.user" -> resolver
	valueHook ValueHook
	logger    *slog.Logger

	introOnce sync.Once
	intro     *introspection
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithResolvers registers resolvers keyed by field path ("Query.user").
func WithResolvers(resolvers map[string]ResolverFunc) ExecutorOption {
	return func(e *Executor) {
		for path, fn := range resolvers {
			e.resolvers[path] = fn
		}
	}
}

// WithValueHook sets the hook applied to every resolved value.
func WithValueHook(h ValueHook) ExecutorOption {
	return func(e *Executor) {
		e.valueHook = h
	}
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates a new GraphQL executor with the given schema and configuration.
func NewExecutor(schema *Schema, config *GraphQLConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{
		schema:    schema,
		config:    config,
		resolvers: make(map[string]ResolverFunc),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the executor's schema.
func (e *Executor) Schema() *Schema {
	return e.schema
}

// SetResolver registers or replaces the resolver for a field path.
func (e *Executor) SetResolver(path string, fn ResolverFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolvers[path] = fn
}

// Resolver returns the resolver registered for a field path.
func (e *Executor) Resolver(path string) (ResolverFunc, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.resolvers[path]
	return fn, ok
}

// execContext carries per-request state.
type execContext struct {
	doc    *ast.QueryDocument
	vars   map[string]interface{}
	errors []GraphQLError
}

func (ec *execContext) addError(err GraphQLError) {
	ec.errors = append(ec.errors, err)
}

// Execute executes a GraphQL request and returns a response.
func (e *Executor) Execute(ctx context.Context, req *GraphQLRequest) *GraphQLResponse {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return errorResponse("query is required")
	}

	doc, errs := gqlparser.LoadQuery(e.schema.AST(), req.Query)
	if len(errs) > 0 {
		return &GraphQLResponse{Errors: convertErrorList(errs)}
	}

	op, err := selectOperation(doc, req.OperationName)
	if err != nil {
		return errorResponse(err.Error())
	}

	vars, err := validator.VariableValues(e.schema.AST(), op, req.Variables)
	if err != nil {
		return &GraphQLResponse{Errors: []GraphQLError{convertError(err)}}
	}

	root := e.rootType(op.Operation)
	if root == nil {
		return errorResponse(fmt.Sprintf("schema does not support %s operations", op.Operation))
	}

	ec := &execContext{doc: doc, vars: vars}
	data, ok := e.executeSelectionSet(ctx, ec, root, nil, op.SelectionSet, nil)

	e.logger.Debug("executed graphql operation",
		"operation", op.Name,
		"type", string(op.Operation),
		"errors", len(ec.errors))

	resp := &GraphQLResponse{Errors: ec.errors}
	if ok {
		resp.Data = data
	}
	return resp
}

func errorResponse(message string) *GraphQLResponse {
	return &GraphQLResponse{Errors: []GraphQLError{{Message: message}}}
}

// operationKind reports which kind of operation req would run. ok is false
// when the document does not validate or names no runnable operation.
func (e *Executor) operationKind(req *GraphQLRequest) (ast.Operation, bool) {
	if req == nil {
		return "", false
	}
	doc, errs := gqlparser.LoadQuery(e.schema.AST(), req.Query)
	if len(errs) > 0 {
		return "", false
	}
	op, err := selectOperation(doc, req.OperationName)
	if err != nil {
		return "", false
	}
	return op.Operation, true
}

// selectOperation picks the operation to run from a parsed document.
func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, errors.New("no operation found in query")
	}
	if name == "" {
		if len(doc.Operations) > 1 {
			return nil, errors.New("operationName is required when the document contains multiple operations")
		}
		return doc.Operations[0], nil
	}
	op := doc.Operations.ForName(name)
	if op == nil {
		return nil, fmt.Errorf("operation %q not found", name)
	}
	return op, nil
}

func (e *Executor) rootType(op ast.Operation) *ast.Definition {
	switch op {
	case ast.Query:
		return e.schema.AST().Query
	case ast.Mutation:
		return e.schema.AST().Mutation
	case ast.Subscription:
		return e.schema.AST().Subscription
	default:
		return nil
	}
}

// collectedField groups fields that share a response key.
type collectedField struct {
	key    string
	fields []*ast.Field
}

// executeSelectionSet resolves every selected field of objType against source.
// ok is false when a non-null field resolved to null and the object itself
// must become null.
func (e *Executor) executeSelectionSet(ctx context.Context, ec *execContext, objType *ast.Definition, source interface{}, sels ast.SelectionSet, path []interface{}) (map[string]interface{}, bool) {
	var collected []collectedField
	e.collectFields(ec, objType, sels, &collected, make(map[string]int), make(map[string]bool))

	result := make(map[string]interface{}, len(collected))
	for _, cf := range collected {
		field := cf.fields[0]
		fieldPath := appendPath(path, cf.key)

		if field.Name == "__typename" {
			result[cf.key] = objType.Name
			continue
		}

		def := objType.Fields.ForName(field.Name)
		if def == nil {
			continue
		}

		value, ok := e.resolveField(ctx, ec, objType, def, cf.fields, source, fieldPath)
		if !ok {
			return nil, false
		}
		result[cf.key] = value
	}
	return result, true
}

// collectFields flattens fragments and applies @skip/@include.
func (e *Executor) collectFields(ec *execContext, objType *ast.Definition, sels ast.SelectionSet, out *[]collectedField, index map[string]int, visited map[string]bool) {
	for _, sel := range sels {
		switch s := sel.(type) {
		case *ast.Field:
			if !shouldInclude(s.Directives, ec.vars) {
				continue
			}
			key := s.Alias
			if key == "" {
				key = s.Name
			}
			if i, ok := index[key]; ok {
				(*out)[i].fields = append((*out)[i].fields, s)
				continue
			}
			index[key] = len(*out)
			*out = append(*out, collectedField{key: key, fields: []*ast.Field{s}})

		case *ast.InlineFragment:
			if !shouldInclude(s.Directives, ec.vars) || !e.fragmentApplies(objType, s.TypeCondition) {
				continue
			}
			e.collectFields(ec, objType, s.SelectionSet, out, index, visited)

		case *ast.FragmentSpread:
			if !shouldInclude(s.Directives, ec.vars) || visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			frag := s.Definition
			if frag == nil {
				frag = ec.doc.Fragments.ForName(s.Name)
			}
			if frag == nil || !e.fragmentApplies(objType, frag.TypeCondition) {
				continue
			}
			e.collectFields(ec, objType, frag.SelectionSet, out, index, visited)
		}
	}
}

func shouldInclude(directives ast.DirectiveList, vars map[string]interface{}) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func (e *Executor) fragmentApplies(objType *ast.Definition, typeCondition string) bool {
	if typeCondition == "" || typeCondition == objType.Name {
		return true
	}
	cond := e.schema.GetType(typeCondition)
	if cond == nil {
		return false
	}
	for _, t := range e.schema.AST().GetPossibleTypes(cond) {
		if t.Name == objType.Name {
			return true
		}
	}
	return false
}

// resolveField runs the field's resolver (or the default map lookup) and
// completes the result. ok follows executeSelectionSet.
func (e *Executor) resolveField(ctx context.Context, ec *execContext, objType *ast.Definition, def *ast.FieldDefinition, fields []*ast.Field, source interface{}, path []interface{}) (interface{}, bool) {
	field := fields[0]
	if err := ctx.Err(); err != nil {
		ec.addError(GraphQLError{Message: "request cancelled", Path: path})
		return nil, !def.Type.NonNull
	}

	if field.Definition == nil {
		field.Definition = def
	}
	args := field.ArgumentMap(ec.vars)
	fp := FieldPath{TypeName: objType.Name, FieldName: field.Name}

	var value interface{}
	var err error
	if fn := e.lookupResolver(objType, fp); fn != nil {
		value, err = fn(ctx, ResolveParams{Source: source, Args: args, Field: fp, Path: path})
	} else {
		value = defaultResolve(source, field.Name)
	}

	if err != nil {
		ec.addError(fieldError(err, path, field.Position))
		return nil, !def.Type.NonNull
	}

	return e.completeValue(ctx, ec, def.Type, fields, value, path)
}

// lookupResolver finds the resolver for a field. Introspection fields on the
// query root resolve from the schema itself.
func (e *Executor) lookupResolver(objType *ast.Definition, fp FieldPath) ResolverFunc {
	if fn, ok := e.Resolver(fp.String()); ok {
		return fn
	}
	if objType == e.schema.AST().Query && isIntrospectionField(fp.FieldName) {
		return e.introspectionResolver(fp.FieldName)
	}
	return nil
}

// completeValue shapes value according to typ. ok is false when the value
// is null at a non-null position and the null must propagate to the parent.
func (e *Executor) completeValue(ctx context.Context, ec *execContext, typ *ast.Type, fields []*ast.Field, value interface{}, path []interface{}) (interface{}, bool) {
	if e.valueHook != nil && !isNil(value) {
		hooked, err := e.valueHook(ctx, value)
		if err != nil {
			ec.addError(fieldError(err, path, fields[0].Position))
			return nil, !typ.NonNull
		}
		value = hooked
	}

	if isNil(value) {
		if typ.NonNull {
			ec.addError(GraphQLError{
				Message:   fmt.Sprintf("Cannot return null for non-nullable field %s", fieldLabel(fields[0])),
				Path:      path,
				Locations: locations(fields[0].Position),
			})
			return nil, false
		}
		return nil, true
	}

	if typ.Elem != nil {
		return e.completeList(ctx, ec, typ, fields, value, path)
	}

	def := e.schema.GetType(typ.NamedType)
	if def == nil {
		return value, true
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return value, true

	case ast.Object:
		return e.completeObject(ctx, ec, typ, def, fields, value, path)

	case ast.Interface, ast.Union:
		concrete := e.resolveAbstractType(def, value)
		if concrete == nil {
			ec.addError(GraphQLError{
				Message: fmt.Sprintf("could not determine concrete type for %s", def.Name),
				Path:    path,
			})
			return nil, !typ.NonNull
		}
		return e.completeObject(ctx, ec, typ, concrete, fields, value, path)

	default:
		return value, true
	}
}

func (e *Executor) completeList(ctx context.Context, ec *execContext, typ *ast.Type, fields []*ast.Field, value interface{}, path []interface{}) (interface{}, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		ec.addError(GraphQLError{
			Message: fmt.Sprintf("expected a list for field %s, got %T", fieldLabel(fields[0]), value),
			Path:    path,
		})
		return nil, !typ.NonNull
	}

	items := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, ok := e.completeValue(ctx, ec, typ.Elem, fields, rv.Index(i).Interface(), appendPath(path, i))
		if !ok {
			return nil, !typ.NonNull
		}
		items[i] = item
	}
	return items, true
}

func (e *Executor) completeObject(ctx context.Context, ec *execContext, typ *ast.Type, def *ast.Definition, fields []*ast.Field, value interface{}, path []interface{}) (interface{}, bool) {
	var sels ast.SelectionSet
	for _, f := range fields {
		sels = append(sels, f.SelectionSet...)
	}
	obj, ok := e.executeSelectionSet(ctx, ec, def, value, sels, path)
	if !ok {
		return nil, !typ.NonNull
	}
	return obj, true
}

// resolveAbstractType picks the concrete object type for an interface or
// union value, using its "__typename" key when present.
func (e *Executor) resolveAbstractType(def *ast.Definition, value interface{}) *ast.Definition {
	if name, ok := defaultResolve(value, "__typename").(string); ok && name != "" {
		if concrete := e.schema.GetType(name); concrete != nil && concrete.Kind == ast.Object {
			return concrete
		}
	}
	possible := e.schema.AST().GetPossibleTypes(def)
	if len(possible) == 1 {
		return possible[0]
	}
	return nil
}

// defaultResolve reads name from a map or struct source.
func defaultResolve(source interface{}, name string) interface{} {
	switch s := source.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return s[name]
	}

	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if tag == name || (tag == "" && strings.EqualFold(f.Name, name)) {
				return rv.Field(i).Interface()
			}
		}
	}
	return nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func appendPath(path []interface{}, elem interface{}) []interface{} {
	out := make([]interface{}, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

func fieldLabel(f *ast.Field) string {
	if f.ObjectDefinition != nil {
		return f.ObjectDefinition.Name + "." + f.Name
	}
	return f.Name
}

func locations(pos *ast.Position) []GraphQLErrorLocation {
	if pos == nil {
		return nil
	}
	return []GraphQLErrorLocation{{Line: pos.Line, Column: pos.Column}}
}

// fieldError converts a resolver error into a GraphQL error. Errors exposing
// Code() or Extensions() contribute extensions.
func fieldError(err error, path []interface{}, pos *ast.Position) GraphQLError {
	gqlErr := GraphQLError{
		Message:   err.Error(),
		Path:      path,
		Locations: locations(pos),
	}

	var ext interface{ Extensions() map[string]interface{} }
	var coded interface{ Code() string }
	switch {
	case errors.As(err, &ext):
		gqlErr.Extensions = ext.Extensions()
	case errors.As(err, &coded):
		gqlErr.Extensions = map[string]interface{}{"code": coded.Code()}
	}
	return gqlErr
}

func convertError(err error) GraphQLError {
	var gerr *gqlerror.Error
	if !errors.As(err, &gerr) {
		return GraphQLError{Message: err.Error()}
	}

	out := GraphQLError{
		Message:    gerr.Message,
		Extensions: gerr.Extensions,
	}
	for _, loc := range gerr.Locations {
		out.Locations = append(out.Locations, GraphQLErrorLocation{Line: loc.Line, Column: loc.Column})
	}
	for _, p := range gerr.Path {
		switch el := p.(type) {
		case ast.PathName:
			out.Path = append(out.Path, string(el))
		case ast.PathIndex:
			out.Path = append(out.Path, int(el))
		}
	}
	return out
}

func convertErrorList(list gqlerror.List) []GraphQLError {
	out := make([]GraphQLError, 0, len(list))
	for _, err := range list {
		out = append(out, convertError(err))
	}
	return out
}
