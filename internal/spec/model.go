package spec

import (
	"encoding/json"
	"regexp"
	"slices"
	"sort"
)

// Internal model produced by ingestion and consumed read-only by emitters.

// Specification is the root artifact of ingestion.
type Specification struct {
	// Commit is the source revision or branch label the tree was taken from.
	Commit string
	// Endpoints maps the spec key (e.g. "indices.create") to its endpoint.
	Endpoints map[string]*Endpoint
	// CommonParameters is the self-patched common registry.
	CommonParameters map[string]*QueryParameter
}

// Keys returns the endpoint keys in lexicographic order.
func (s *Specification) Keys() []string {
	keys := make([]string, 0, len(s.Endpoints))
	for k := range s.Endpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns the endpoints ordered by key.
func (s *Specification) Sorted() []*Endpoint {
	keys := s.Keys()
	out := make([]*Endpoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.Endpoints[k])
	}
	return out
}

// EnumParameters returns one parameter per distinct enum field name across
// all endpoints, ordered by field name. The first definition in key order
// provides the metadata; Options is the union of every definition's options,
// in first-seen order. The returned parameters are copies.
func (s *Specification) EnumParameters() []*QueryParameter {
	byName := make(map[string]*QueryParameter)
	for _, ep := range s.Sorted() {
		for _, name := range ep.ParameterNames() {
			p := ep.Parameters[name]
			if p.Type != "enum" || len(p.Options) == 0 {
				continue
			}
			first, ok := byName[p.FieldName]
			if !ok {
				byName[p.FieldName] = p.Clone()
				continue
			}
			for _, opt := range p.Options {
				if !slices.Contains(first.Options, opt) {
					first.Options = append(first.Options, opt)
				}
			}
		}
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*QueryParameter, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}

// Endpoint is one REST operation.
type Endpoint struct {
	Key           string
	MethodName    string
	Documentation Documentation
	Methods       []string
	URL           URL
	Body          *Body // nil when the endpoint takes no body
	Parameters    map[string]*QueryParameter
}

// ParameterNames returns the query parameter names in lexicographic order.
func (e *Endpoint) ParameterNames() []string {
	names := make([]string, 0, len(e.Parameters))
	for n := range e.Parameters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// URL holds the path templates of an endpoint.
type URL struct {
	Path  string              `json:"path,omitempty"`
	Paths []string            `json:"paths"`
	Parts map[string]*URLPart `json:"parts,omitempty"`
}

// URLPart describes one {placeholder} of a path template.
type URLPart struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Body describes the request body of an endpoint.
type Body struct {
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Serialize   string `json:"serialize,omitempty"`
}

// Documentation accepts both the bare URL string and the
// {"url": ..., "description": ...} object layouts.
type Documentation struct {
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

func (d *Documentation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.URL = s
		return nil
	}
	type plain Documentation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Documentation(p)
	return nil
}

// QueryParameter is one query string parameter definition.
type QueryParameter struct {
	Name        string      `json:"-"`
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Default     any         `json:"default,omitempty"`
	Deprecated  Deprecation `json:"deprecated"`

	// Set during reconciliation.
	FieldName string `json:"-"`
	Obsolete  string `json:"-"`
	Skip      bool   `json:"-"`
}

// Clone returns a copy that shares no slices with p.
func (p *QueryParameter) Clone() *QueryParameter {
	if p == nil {
		return nil
	}
	c := *p
	if p.Options != nil {
		c.Options = append([]string(nil), p.Options...)
	}
	return &c
}

// Deprecation accepts `true`, `false` and {"version": ..., "description": ...}.
type Deprecation struct {
	Deprecated  bool
	Version     string
	Description string
}

func (d *Deprecation) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Deprecation{}
		return nil
	}
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		*d = Deprecation{Deprecated: flag}
		return nil
	}
	var obj struct {
		Version     string `json:"version"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*d = Deprecation{Deprecated: true, Version: obj.Version, Description: obj.Description}
	return nil
}

var pathParamRe = regexp.MustCompile(`\{([^}/]+)\}`)

// PathParams returns the placeholder names of a path template in order of
// appearance.
func PathParams(path string) []string {
	matches := pathParamRe.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
