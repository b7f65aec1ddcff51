package repomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	m := New(map[string][]string{
		"al":  {"acme/ample-frontend", "ample-backend"},
		"CB":  {" acme/casagrand "},
		"EMP": {},
	}, "acme")

	tests := []struct {
		name string
		key  string
		want []string
	}{
		{
			name: "Lower-cased config key resolves upper-case project",
			key:  "AL",
			want: []string{"acme/ample-frontend", "acme/ample-backend"},
		},
		{
			name: "Lookup is case-insensitive",
			key:  "cb",
			want: []string{"acme/casagrand"},
		},
		{
			name: "Unknown key yields empty slice",
			key:  "ZZ",
			want: []string{},
		},
		{
			name: "Key with no repositories yields empty slice",
			key:  "EMP",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Resolve(tt.key))
		})
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	m := New(map[string][]string{"AL": {"acme/a", "acme/b"}}, "")

	repos := m.Resolve("AL")
	repos[0] = "mutated"

	assert.Equal(t, []string{"acme/a", "acme/b"}, m.Resolve("AL"))
}

func TestKeysSortedIncludingUnmapped(t *testing.T) {
	m := New(map[string][]string{
		"sc":  {"acme/centroid"},
		"AL":  {"acme/ample"},
		"EMP": nil,
		"cb":  {"acme/casagrand"},
		"blk": {" ", ""},
	}, "")

	assert.Equal(t, []string{"AL", "BLK", "CB", "EMP", "SC"}, m.Keys())
	assert.Empty(t, m.Resolve("EMP"))
	assert.Empty(t, m.Resolve("BLK"))
}

func TestDefault(t *testing.T) {
	m := Default()

	assert.Equal(t, []string{"InfiniumDevIO/Ample-Frontend", "InfiniumDevIO/Ample-Backend"}, m.Resolve("AL"))
	assert.Len(t, m.Keys(), 20)
	assert.Equal(t, "AL", m.Keys()[0])
	assert.Equal(t, m.Keys(), New(nil, "ignored").Keys())
}
