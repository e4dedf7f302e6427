package goemitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/mark3labs/restgen/internal/spec"
)

// Template views. Everything is ordered so that rendering is deterministic.

type packageView struct {
	Package   string
	Commit    string
	Endpoints []endpointView
	Enums     []enumView
}

type endpointView struct {
	Key         string
	MethodName  string
	DocURL      string
	Description string
	Methods     []string
	HasBody     bool
	BodyDoc     string
	Parts       []partView
	Paths       []pathView
	DefaultPath string
	Params      []paramView
}

type partView struct {
	Name        string
	Field       string
	Description string
	Required    bool
}

type pathView struct {
	Template string
	// Fields are the request fields that must be set for this template.
	Fields []string
	// Expr is a Go expression building the path from the request fields.
	Expr string
	// Cond is the Go condition under which Expr applies; empty when the
	// template has no placeholders.
	Cond string
}

type paramView struct {
	Name        string
	Field       string
	Kind        string // bool, int, float, list, enum or string
	GoType      string
	Description string
	Deprecated  string
}

type enumView struct {
	Type        string
	Param       string
	Description string
	Values      []enumValue
}

type enumValue struct {
	Ident string
	Value string
}

// reserved holds identifiers the generated package declares itself.
var reserved = map[string]struct{}{
	"Client": {}, "Descriptor": {}, "LowLevel": {}, "New": {}, "Response": {}, "Transport": {},
}

// Members the templates declare on generated types. Fields derived from
// the model must not reuse them.
var (
	lowLevelMembers   = []string{"Dispatch"}
	requestMembers    = []string{"Method", "Path", "Params", "Body"}
	parametersMembers = []string{"Query"}
)

func memberSet(members []string) map[string]string {
	seen := make(map[string]string, len(members))
	for _, m := range members {
		seen[m] = ""
	}
	return seen
}

func buildView(model *spec.Specification, pkg string, w *spec.Warnings) packageView {
	v := packageView{Package: pkg, Commit: model.Commit}

	enumTypes := make(map[string]string)
	enumOptions := make(map[string]int)
	for _, p := range model.EnumParameters() {
		ev := buildEnum(p)
		enumTypes[p.FieldName] = ev.Type
		enumOptions[p.FieldName] = len(p.Options)
		v.Enums = append(v.Enums, ev)
	}

	methods := memberSet(lowLevelMembers)
	for _, ep := range model.Sorted() {
		ev := buildEndpoint(ep, enumTypes, w)
		if other, dup := methods[ev.MethodName]; dup {
			renamed := uniqueField(ev.MethodName, methods)
			if other == "" {
				w.Addf("%s: method name '%s' is declared by the client itself; renamed to '%s'", ep.Key, ev.MethodName, renamed)
			} else {
				w.Addf("%s: method name '%s' is already used by %s; renamed to '%s'", ep.Key, ev.MethodName, other, renamed)
			}
			ev.MethodName = renamed
		}
		methods[ev.MethodName] = ep.Key
		for _, name := range ep.ParameterNames() {
			p := ep.Parameters[name]
			if n, ok := enumOptions[p.FieldName]; ok && p.Type == "enum" && len(p.Options) > 0 && len(p.Options) != n {
				w.Addf("%s: enum parameter '%s' has options that differ from other endpoints; %s holds their union", ep.Key, name, enumTypes[p.FieldName])
			}
		}
		v.Endpoints = append(v.Endpoints, ev)
	}
	return v
}

func buildEndpoint(ep *spec.Endpoint, enumTypes map[string]string, w *spec.Warnings) endpointView {
	ev := endpointView{
		Key:         ep.Key,
		MethodName:  ep.MethodName,
		DocURL:      ep.Documentation.URL,
		Description: oneLine(ep.Documentation.Description),
		Methods:     append([]string(nil), ep.Methods...),
	}
	if len(ev.Methods) == 0 {
		ev.Methods = []string{"GET"}
	}
	if ep.Body != nil {
		ev.HasBody = true
		ev.BodyDoc = oneLine(ep.Body.Description)
	}

	parts := make(map[string]string)
	for _, tmpl := range ep.URL.Paths {
		for _, name := range spec.PathParams(tmpl) {
			if _, ok := parts[name]; ok {
				continue
			}
			parts[name] = ""
			if _, declared := ep.URL.Parts[name]; !declared && len(ep.URL.Parts) > 0 {
				w.Addf("%s: path part '%s' is not declared in url.parts", ep.Key, name)
			}
		}
	}
	names := make([]string, 0, len(parts))
	for n := range parts {
		names = append(names, n)
	}
	sort.Strings(names)
	fields := memberSet(requestMembers)
	for _, n := range names {
		field := spec.PascalCase(n)
		if other, dup := fields[field]; dup {
			renamed := uniqueField(field, fields)
			if other == "" {
				w.Addf("%s: path part '%s' maps to the request member '%s'; renamed to '%s'", ep.Key, n, field, renamed)
			} else {
				w.Addf("%s: path parts '%s' and '%s' map to the same field '%s'", ep.Key, other, n, field)
			}
			field = renamed
		}
		fields[field] = n
		parts[n] = field
	}
	for _, n := range names {
		pv := partView{Name: n, Field: parts[n]}
		if decl := ep.URL.Parts[n]; decl != nil {
			pv.Description = oneLine(decl.Description)
			pv.Required = decl.Required
		}
		ev.Parts = append(ev.Parts, pv)
	}
	ev.Paths = buildPaths(ep.URL.Paths, parts)
	for _, p := range ev.Paths {
		if p.Cond == "" {
			ev.DefaultPath = p.Expr
			break
		}
	}

	seen := memberSet(parametersMembers)
	for _, name := range ep.ParameterNames() {
		p := ep.Parameters[name]
		if p.Skip {
			continue
		}
		field := p.FieldName
		if field == "" {
			field = spec.PascalCase(name)
		}
		if other, dup := seen[field]; dup {
			renamed := uniqueField(field, seen)
			if other == "" {
				w.Addf("%s: parameter '%s' maps to the parameters member '%s'; renamed to '%s'", ep.Key, name, field, renamed)
			} else {
				w.Addf("%s: parameters '%s' and '%s' map to the same field '%s'", ep.Key, other, name, field)
			}
			field = renamed
		}
		seen[field] = name
		ev.Params = append(ev.Params, buildParam(name, field, p, enumTypes))
	}
	return ev
}

func uniqueField(field string, seen map[string]string) string {
	for i := 2; ; i++ {
		candidate := field + strconv.Itoa(i)
		if _, ok := seen[candidate]; !ok {
			return candidate
		}
	}
}

// buildPaths orders templates most specific first so the first template
// whose fields are all set wins.
func buildPaths(templates []string, parts map[string]string) []pathView {
	out := make([]pathView, 0, len(templates))
	for _, tmpl := range templates {
		pv := pathView{Template: tmpl}
		var exprs []string
		rest := tmpl
		for {
			open := strings.IndexByte(rest, '{')
			if open < 0 {
				break
			}
			end := strings.IndexByte(rest[open:], '}')
			if end < 0 {
				break
			}
			end += open
			if open > 0 {
				exprs = append(exprs, strconv.Quote(rest[:open]))
			}
			field, ok := parts[rest[open+1:end]]
			if !ok {
				field = spec.PascalCase(rest[open+1 : end])
			}
			pv.Fields = append(pv.Fields, field)
			exprs = append(exprs, "url.PathEscape(r."+field+")")
			rest = rest[end+1:]
		}
		if rest != "" || len(exprs) == 0 {
			exprs = append(exprs, strconv.Quote(rest))
		}
		pv.Expr = strings.Join(exprs, " + ")
		conds := make([]string, 0, len(pv.Fields))
		for _, f := range pv.Fields {
			conds = append(conds, "r."+f+` != ""`)
		}
		pv.Cond = strings.Join(conds, " && ")
		out = append(out, pv)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Fields) > len(out[j].Fields) })
	return out
}

func buildParam(name, field string, p *spec.QueryParameter, enumTypes map[string]string) paramView {
	pv := paramView{Name: name, Field: field, Description: oneLine(p.Description)}
	switch {
	case p.Obsolete != "":
		pv.Deprecated = oneLine(p.Obsolete)
	case p.Deprecated.Deprecated:
		pv.Deprecated = "deprecated"
		if p.Deprecated.Version != "" {
			pv.Deprecated += " since " + p.Deprecated.Version
		}
		if d := oneLine(p.Deprecated.Description); d != "" {
			pv.Deprecated += ": " + d
		}
	}

	switch strings.ToLower(p.Type) {
	case "boolean":
		pv.Kind, pv.GoType = "bool", "*bool"
	case "int", "integer", "long":
		pv.Kind, pv.GoType = "int", "*int64"
	case "number", "double", "float":
		pv.Kind, pv.GoType = "float", "*float64"
	case "list":
		pv.Kind, pv.GoType = "list", "[]string"
	case "enum":
		if t, ok := enumTypes[p.FieldName]; ok {
			pv.Kind, pv.GoType = "enum", "*"+t
			break
		}
		pv.Kind, pv.GoType = "string", "*string"
	default:
		pv.Kind, pv.GoType = "string", "*string"
	}
	return pv
}

func buildEnum(p *spec.QueryParameter) enumView {
	typ := p.FieldName
	if _, clash := reserved[typ]; clash {
		typ += "Option"
	}
	ev := enumView{Type: typ, Param: p.Name, Description: oneLine(p.Description)}
	used := make(map[string]struct{})
	for i, opt := range p.Options {
		ident := typ + identPart(opt, i)
		if _, dup := used[ident]; dup {
			ident += strconv.Itoa(i)
		}
		used[ident] = struct{}{}
		ev.Values = append(ev.Values, enumValue{Ident: ident, Value: opt})
	}
	return ev
}

// identPart turns an enum option into an exported identifier suffix.
func identPart(opt string, idx int) string {
	if opt == "*" {
		return "All"
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, opt)
	part := spec.PascalCase(cleaned)
	if part == "" {
		return fmt.Sprintf("Value%d", idx)
	}
	if unicode.IsDigit(rune(part[0])) {
		return "V" + part
	}
	return part
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Import selection for the templates.

func (v packageView) hasParamKind(kinds ...string) bool {
	for _, ep := range v.Endpoints {
		for _, p := range ep.Params {
			for _, k := range kinds {
				if p.Kind == k {
					return true
				}
			}
		}
	}
	return false
}

// UsesStrconv reports whether any parameter needs number or bool formatting.
func (v packageView) UsesStrconv() bool { return v.hasParamKind("bool", "int", "float") }

// UsesStrings reports whether any parameter is a list.
func (v packageView) UsesStrings() bool { return v.hasParamKind("list") }

// UsesPathEscape reports whether any path template has placeholders.
func (v packageView) UsesPathEscape() bool {
	for _, ep := range v.Endpoints {
		for _, p := range ep.Paths {
			if p.Cond != "" {
				return true
			}
		}
	}
	return false
}

// NeedsPathError reports whether any request can fail to build a path.
func (v packageView) NeedsPathError() bool {
	for _, ep := range v.Endpoints {
		if ep.DefaultPath == "" {
			return true
		}
	}
	return false
}
