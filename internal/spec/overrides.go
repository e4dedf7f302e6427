package spec

// EndpointOverrides adjusts how an endpoint's query parameters are
// reconciled. Field names follow the YAML config layout.
type EndpointOverrides struct {
	// SkipCommon lists common parameters the endpoint does not inherit.
	// "*" opts out of every common parameter.
	SkipCommon []string `yaml:"skipCommon"`
	// Skip marks parameters that emitters should not render.
	Skip []string `yaml:"skip"`
	// Rename maps a query string key to the name used for its identifier.
	Rename map[string]string `yaml:"rename"`
	// Obsolete maps a query string key to an obsoletion message.
	Obsolete map[string]string `yaml:"obsolete"`
}

// Overrides holds global overrides plus per-endpoint ones keyed by spec key.
type Overrides struct {
	Global    EndpointOverrides            `yaml:"global"`
	Endpoints map[string]EndpointOverrides `yaml:"endpoints"`
}

// For returns the overrides in effect for the endpoint key. Endpoint entries
// extend the global lists and win on conflicting map entries.
func (o *Overrides) For(key string) EndpointOverrides {
	if o == nil {
		return EndpointOverrides{}
	}
	ep, ok := o.Endpoints[key]
	if !ok {
		return o.Global
	}
	merged := EndpointOverrides{
		SkipCommon: append(append([]string(nil), o.Global.SkipCommon...), ep.SkipCommon...),
		Skip:       append(append([]string(nil), o.Global.Skip...), ep.Skip...),
		Rename:     mergeStringMaps(o.Global.Rename, ep.Rename),
		Obsolete:   mergeStringMaps(o.Global.Obsolete, ep.Obsolete),
	}
	return merged
}

func (e EndpointOverrides) skipsCommon(name string) bool {
	for _, s := range e.SkipCommon {
		if s == "*" || s == name {
			return true
		}
	}
	return false
}

func (e EndpointOverrides) skips(name string) bool {
	for _, s := range e.Skip {
		if s == name {
			return true
		}
	}
	return false
}

func mergeStringMaps(base, over map[string]string) map[string]string {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
