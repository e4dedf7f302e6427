package spec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"bar.baz", "BarBaz"},
		{"indices.create", "IndicesCreate"},
		{"indices.put_mapping", "IndicesPutMapping"},
		{"xpack.ml.get_job_stats", "XpackMlGetJobStats"},
		{"cat.nodeattrs", "CatNodeattrs"},
		{"INDICES.Exists_ALIAS", "IndicesExistsAlias"},
		{"search", "Search"},
		{"a..b__c", "ABC"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.key, func(t *testing.T) {
			got := MethodName(tt.key)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, MethodName(tt.key), "deterministic")
			assert.False(t, strings.ContainsAny(got, "._"))
		})
	}
}

func TestPathParams(t *testing.T) {
	assert.Equal(t, []string{"index", "type", "id"}, PathParams("/{index}/{type}/{id}/_source"))
	assert.Nil(t, PathParams("/_cluster/health"))
}
