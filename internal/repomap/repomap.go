// Package repomap resolves JIRA project keys to the GitHub repositories that
// hold their code.
package repomap

import (
	"sort"
	"strings"
)

// defaultRepositories is used when configuration does not provide a table.
var defaultRepositories = map[string][]string{
	"AL":    {"InfiniumDevIO/Ample-Frontend", "InfiniumDevIO/Ample-Backend"},
	"BV3":   {"InfiniumDevIO/BlueValley_Conversational_AI_Demo"},
	"CB":    {"InfiniumDevIO/Casagrand-Banglore"},
	"CAS":   {"InfiniumDevIO/Casagrand_Backend", "InfiniumDevIO/Casasgrand", "InfiniumDevIO/casagrand-blr-backend"},
	"C3":    {"InfiniumDevIO/Centroid"},
	"CEN":   {"InfiniumDevIO/Century"},
	"CE":    {"InfiniumDevIO/Century"},
	"CXDT2": {"InfiniumDevIO/circle-design-frontend", "InfiniumDevIO/starter-digital-tool-premium"},
	"D3":    {"InfiniumDevIO/DRA"},
	"DI":    {"InfiniumDevIO/DRA-Backend"},
	"GMM":   {"InfiniumDevIO/Million_minds", "InfiniumDevIO/Million_Minds-Backend"},
	"GERA":  {"InfiniumDevIO/Gera-Frontend", "InfiniumDevIO/Gera-Backend"},
	"G3":    {"InfiniumDevIO/Gera-360-Viewer"},
	"KP":    {"InfiniumDevIO/Kolte-Patil"},
	"PRIM":  {"InfiniumDevIO/Primarc", "InfiniumDevIO/Primarc-Backend"},
	"RM":    {"InfiniumDevIO/Rajyash"},
	"RAT":   {"InfiniumDevIO/Ratna"},
	"RAT3D": {"InfiniumDevIO/Ratna"},
	"SC":    {"InfiniumDevIO/Centroid"},
	"SKYI":  {"InfiniumDevIO/SkyI", "InfiniumDevIO/skyi-Backend"},
}

// Map is a read-only project key to repository table.
type Map struct {
	entries map[string][]string
}

// Default returns the built-in table.
func Default() *Map {
	return New(defaultRepositories, "")
}

// New builds a Map from a configured table. Keys are upper-cased and entries
// without an owner are qualified with owner. Blank entries are dropped.
// A nil table yields the built-in one.
func New(table map[string][]string, owner string) *Map {
	if table == nil {
		table = defaultRepositories
	}

	entries := make(map[string][]string, len(table))
	for key, repos := range table {
		normalized := strings.ToUpper(strings.TrimSpace(key))
		if normalized == "" {
			continue
		}
		for _, repo := range repos {
			repo = strings.TrimSpace(repo)
			if repo == "" {
				continue
			}
			if !strings.Contains(repo, "/") && owner != "" {
				repo = owner + "/" + repo
			}
			entries[normalized] = append(entries[normalized], repo)
		}
		if _, ok := entries[normalized]; !ok {
			entries[normalized] = nil
		}
	}
	return &Map{entries: entries}
}

// Resolve returns the repositories mapped to projectKey in configured order.
// An unknown key yields an empty slice.
func (m *Map) Resolve(projectKey string) []string {
	repos := m.entries[strings.ToUpper(strings.TrimSpace(projectKey))]
	out := make([]string, len(repos))
	copy(out, repos)
	return out
}

// Keys returns every configured project key, sorted. Keys configured with
// an empty repository list are included.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
