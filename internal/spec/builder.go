package spec

import (
	"encoding/json"
	"sort"
	"sync"
)

// rawEndpoint is the on-disk shape of an endpoint body.
type rawEndpoint struct {
	Documentation Documentation `json:"documentation"`
	Methods       []string      `json:"methods"`
	URL           struct {
		URL
		Params map[string]*QueryParameter `json:"params"`
	} `json:"url"`
	Body   *Body                      `json:"body"`
	Params map[string]*QueryParameter `json:"params"`
}

// DecodeEndpoint turns a merged document into its key and endpoint. The
// returned endpoint carries its declared query parameters only; callers
// reconcile them with PatchParameters before publishing it.
func DecodeEndpoint(location string, doc Document) (string, *Endpoint, error) {
	if len(doc) != 1 {
		keys := make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, newSpecError(IntegrityError, location, nil,
			"expected exactly one endpoint per document, found %d %v", len(doc), keys)
	}
	var key string
	var body any
	for k, v := range doc {
		key, body = k, v
	}
	if key == "" {
		return "", nil, newSpecError(IntegrityError, location, nil, "endpoint key is empty")
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", nil, newSpecError(ParseError, location, err, "encode %s: %v", key, err)
	}
	var raw rawEndpoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, newSpecError(ParseError, location, err, "decode endpoint %s: %v", key, err)
	}

	declared := make(map[string]*QueryParameter, len(raw.URL.Params)+len(raw.Params))
	for name, p := range raw.URL.Params {
		declared[name] = p
	}
	for name, p := range raw.Params {
		declared[name] = p
	}
	for name, p := range declared {
		if p == nil {
			p = &QueryParameter{}
			declared[name] = p
		}
		p.Name = name
	}

	ep := &Endpoint{
		Key:           key,
		MethodName:    MethodName(key),
		Documentation: raw.Documentation,
		Methods:       raw.Methods,
		URL:           raw.URL.URL,
		Body:          raw.Body,
		Parameters:    declared,
	}
	if ep.URL.Paths == nil && ep.URL.Path != "" {
		ep.URL.Paths = []string{ep.URL.Path}
	}
	return key, ep, nil
}

// EndpointTable accumulates endpoints and rejects duplicate keys. It is safe
// for concurrent use.
type EndpointTable struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint
	sources   map[string]string
}

// NewEndpointTable returns an empty table.
func NewEndpointTable() *EndpointTable {
	return &EndpointTable{
		endpoints: make(map[string]*Endpoint),
		sources:   make(map[string]string),
	}
}

// Insert adds ep under key. source names the file ep came from and is used
// in the duplicate error.
func (t *EndpointTable) Insert(key, source string, ep *Endpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.sources[key]; ok {
		return newSpecError(IntegrityError, source, nil,
			"duplicate endpoint key %q, already defined by %s", key, prev)
	}
	t.endpoints[key] = ep
	t.sources[key] = source
	return nil
}

// Len returns the number of endpoints inserted.
func (t *EndpointTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.endpoints)
}

// Endpoints returns a copy of the key to endpoint mapping.
func (t *EndpointTable) Endpoints() map[string]*Endpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]*Endpoint, len(t.endpoints))
	for k, v := range t.endpoints {
		out[k] = v
	}
	return out
}
