// variables.go implements \set variable substitution, similar to psql.
//
// Variables are stored in a simple map and expanded in SQL strings
// before execution. Syntax: :varname is replaced with the value.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Variables holds user-defined variables for substitution.
type Variables struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewVariables creates an empty variable store.
func NewVariables() *Variables {
	return &Variables{vars: make(map[string]string)}
}

// Set stores a variable. Usage: \set name value
func (v *Variables) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vars[name] = value
}

// Get retrieves a variable value.
func (v *Variables) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.vars[name]
	return val, ok
}

// Unset removes a variable.
func (v *Variables) Unset(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.vars, name)
}

// List returns all variables as formatted strings, sorted by name.
func (v *Variables) List() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var result []string
	for k, val := range v.vars {
		result = append(result, fmt.Sprintf("%s = '%s'", k, val))
	}
	sort.Strings(result)
	return result
}

// Expand replaces :varname occurrences in sql with stored values.
// Longer names are substituted first so :user does not clobber :username.
func (v *Variables) Expand(sql string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.vars))
	for name := range v.vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		sql = strings.ReplaceAll(sql, ":"+name, v.vars[name])
	}
	return sql
}
