package openapiemitter

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/restgen/internal/spec"
)

var placeholderRe = regexp.MustCompile(`\{[^}/]+\}`)

// Build converts model into an OpenAPI 3 document. A template whose shape
// matches a different registered template, and a method already declared on
// a template, are dropped with a warning.
func Build(model *spec.Specification, title string, w *spec.Warnings) *openapi3.T {
	version := model.Commit
	if version == "" {
		version = "unversioned"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
	}

	// shapes maps a normalized template to the first concrete template seen.
	shapes := make(map[string]string)
	owners := make(map[string]string)
	opIDs := make(map[string]int)
	for _, ep := range model.Sorted() {
		methods := ep.Methods
		if len(methods) == 0 {
			methods = []string{http.MethodGet}
		}
		for i, tmpl := range ep.URL.Paths {
			shape := placeholderRe.ReplaceAllString(tmpl, "{}")
			if first, ok := shapes[shape]; ok && first != tmpl {
				w.Addf("openapi: %s: path '%s' conflicts with '%s'; skipped", ep.Key, tmpl, first)
				continue
			}
			shapes[shape] = tmpl

			item := doc.Paths.Value(tmpl)
			if item == nil {
				item = &openapi3.PathItem{}
				doc.Paths.Set(tmpl, item)
			}
			for _, method := range methods {
				method = strings.ToUpper(method)
				owner := method + " " + tmpl
				if prev, taken := owners[owner]; taken {
					w.Addf("openapi: %s: %s is already declared by %s; skipped", ep.Key, owner, prev)
					continue
				}
				owners[owner] = ep.Key
				op := buildOperation(ep, tmpl, method, i, w)
				if n := opIDs[op.OperationID]; n > 0 {
					w.Addf("openapi: %s: operation id '%s' is already in use", ep.Key, op.OperationID)
					opIDs[op.OperationID] = n + 1
					op.OperationID += "_" + strconv.Itoa(n+1)
				} else {
					opIDs[op.OperationID] = 1
				}
				item.SetOperation(method, op)
			}
		}
	}
	return doc
}

func buildOperation(ep *spec.Endpoint, tmpl, method string, pathIndex int, w *spec.Warnings) *openapi3.Operation {
	opID := ep.MethodName
	if len(ep.Methods) > 1 {
		opID += spec.PascalCase(strings.ToLower(method))
	}
	if pathIndex > 0 {
		opID += strconv.Itoa(pathIndex)
	}

	op := &openapi3.Operation{
		OperationID: opID,
		Summary:     ep.Key,
		Description: ep.Documentation.Description,
		Tags:        []string{namespace(ep.Key)},
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Successful response").WithJSONSchema(openapi3.NewObjectSchema()),
		})),
		Extensions: map[string]any{"x-endpoint-key": ep.Key},
	}
	if ep.Documentation.URL != "" {
		op.ExternalDocs = &openapi3.ExternalDocs{URL: ep.Documentation.URL}
	}

	for _, name := range spec.PathParams(tmpl) {
		p := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		if part := ep.URL.Parts[name]; part != nil {
			p.Description = part.Description
			if part.Type == "list" {
				p.Schema = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()).NewRef()
			}
		}
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: p})
	}

	for _, name := range ep.ParameterNames() {
		qp := ep.Parameters[name]
		if qp.Skip {
			continue
		}
		p := openapi3.NewQueryParameter(name).WithDescription(qp.Description)
		schema := parameterSchema(qp)
		if qp.Default != nil {
			if err := schema.VisitJSON(qp.Default); err != nil {
				w.Addf("openapi: %s: default of parameter '%s' does not match its type '%s'", ep.Key, name, qp.Type)
			} else {
				schema.Default = qp.Default
			}
		}
		p.Schema = schema.NewRef()
		if qp.Type == "list" {
			explode := false
			p.Style = openapi3.SerializationForm
			p.Explode = &explode
		}
		p.Deprecated = qp.Deprecated.Deprecated || qp.Obsolete != ""
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: p})
	}

	if ep.Body != nil && method != http.MethodGet && method != http.MethodHead {
		body := openapi3.NewRequestBody().
			WithDescription(ep.Body.Description).
			WithRequired(ep.Body.Required).
			WithJSONSchema(openapi3.NewObjectSchema())
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}
	return op
}

func parameterSchema(p *spec.QueryParameter) *openapi3.Schema {
	switch strings.ToLower(p.Type) {
	case "boolean":
		return openapi3.NewBoolSchema()
	case "int", "integer", "long":
		return openapi3.NewInt64Schema()
	case "number", "double", "float":
		return openapi3.NewFloat64Schema()
	case "list":
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	case "enum":
		s := openapi3.NewStringSchema()
		if len(p.Options) > 0 {
			values := make([]any, 0, len(p.Options))
			for _, o := range p.Options {
				values = append(values, o)
			}
			s = s.WithEnum(values...)
		}
		return s
	default:
		return openapi3.NewStringSchema()
	}
}

// namespace is the key without its final segment, or "core" for keys with
// no namespace.
func namespace(key string) string {
	if i := strings.LastIndexByte(key, '.'); i > 0 {
		return key[:i]
	}
	return "core"
}
