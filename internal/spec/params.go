package spec

import "sort"

const commonLabel = "_common.json"

var knownParamTypes = map[string]struct{}{
	"boolean":  {},
	"date":     {},
	"double":   {},
	"duration": {},
	"enum":     {},
	"float":    {},
	"int":      {},
	"integer":  {},
	"list":     {},
	"long":     {},
	"number":   {},
	"string":   {},
	"text":     {},
	"time":     {},
}

// PatchParameters reconciles the parameters an endpoint declares with the
// common registry and returns the final set. own and common are not modified.
//
// Common parameters absent from own are inherited unless ov opts out. When
// both define a parameter the endpoint's definition wins and a differing type
// is reported to w. Anomalies never abort reconciliation.
func PatchParameters(endpoint string, own, common map[string]*QueryParameter, ov EndpointOverrides, w *Warnings) map[string]*QueryParameter {
	out := make(map[string]*QueryParameter, len(own)+len(common))
	for name, p := range own {
		c := p.Clone()
		if c == nil {
			c = &QueryParameter{}
		}
		c.Name = name
		out[name] = c
	}

	for _, name := range sortedParamNames(common) {
		cp := common[name]
		if p, ok := out[name]; ok {
			if cp != nil && p.Type != cp.Type {
				w.Addf("%s: parameter '%s' declares type '%s' but %s declares '%s'",
					endpoint, name, p.Type, commonLabel, cp.Type)
			}
			continue
		}
		if ov.skipsCommon(name) {
			continue
		}
		c := cp.Clone()
		if c == nil {
			c = &QueryParameter{}
		}
		c.Name = name
		out[name] = c
	}

	for _, name := range sortedParamNames(out) {
		p := out[name]
		preferred := name
		if r, ok := ov.Rename[name]; ok && r != "" {
			preferred = r
		}
		p.FieldName = PascalCase(preferred)
		if ov.skips(name) {
			p.Skip = true
		}
		if msg, ok := ov.Obsolete[name]; ok {
			p.Obsolete = msg
		}
		checkParameter(endpoint, p, w)
	}
	return out
}

func checkParameter(endpoint string, p *QueryParameter, w *Warnings) {
	if p.Type == "" {
		w.Addf("%s: parameter '%s' has no type", endpoint, p.Name)
	} else if _, ok := knownParamTypes[p.Type]; !ok {
		w.Addf("%s: parameter '%s' has unknown type '%s'", endpoint, p.Name, p.Type)
	}
	if p.Type == "enum" && len(p.Options) == 0 {
		w.Addf("%s: enum parameter '%s' declares no options", endpoint, p.Name)
	}
	if p.Deprecated.Deprecated && p.Description == "" && p.Deprecated.Description == "" {
		w.Addf("%s: parameter '%s' is deprecated but has no description", endpoint, p.Name)
	}
}

func sortedParamNames(m map[string]*QueryParameter) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
