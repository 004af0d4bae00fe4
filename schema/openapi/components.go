package openapi

import (
	"fmt"
	"regexp"
	"strings"
)

// componentRegistry publishes schemas under components/schemas. Steps are
// always published; field shapes are published once they occur at least
// twice, e.g. the shared yes/no answer.
type componentRegistry struct {
	entries   map[string]*componentEntry
	usedNames map[string]struct{}
}

type componentEntry struct {
	name   string
	schema map[string]any
	count  int
	force  bool
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		entries:   map[string]*componentEntry{},
		usedNames: map[string]struct{}{},
	}
}

// observe counts a field shape. Call it for every field before reference.
func (r *componentRegistry) observe(node *schemaNode) {
	digest := node.Digest()
	if digest == "" {
		return
	}
	if entry, ok := r.entries[digest]; ok {
		entry.count++
		return
	}
	r.entries[digest] = &componentEntry{count: 1}
}

// reference returns a $ref for node when it is shared, or "" to inline it.
func (r *componentRegistry) reference(nameHint string, node *schemaNode) string {
	entry, ok := r.entries[node.Digest()]
	if !ok || (entry.count < 2 && !entry.force) {
		return ""
	}
	if entry.name == "" {
		entry.name = r.uniqueName(nameHint)
		entry.schema = node.inlineOpenAPI()
	}
	return componentRef(entry.name)
}

// publish always registers node under name and returns its $ref.
func (r *componentRegistry) publish(name string, schema map[string]any) string {
	entry := &componentEntry{name: r.uniqueName(name), schema: schema, count: 1, force: true}
	r.entries["name:"+entry.name] = entry
	return componentRef(entry.name)
}

func (r *componentRegistry) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Schema"
	}
	if _, exists := r.usedNames[safe]; !exists {
		r.usedNames[safe] = struct{}{}
		return safe
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s%d", safe, suffix)
		if _, exists := r.usedNames[candidate]; !exists {
			r.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

func (r *componentRegistry) componentsMap() map[string]any {
	out := map[string]any{}
	for _, entry := range r.entries {
		if entry.name == "" {
			continue
		}
		out[entry.name] = entry.schema
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func componentRef(name string) string {
	return "#/components/schemas/" + name
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = strings.Trim(componentNameRegexp.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
