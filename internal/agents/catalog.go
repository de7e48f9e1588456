// Package agents defines the static catalog of agent types the swarm CLI
// can spawn, grouped by category for the UI's agent picker.
package agents

// Category groups related agent types.
type Category struct {
	Name   string   `json:"name"`
	Agents []string `json:"agents"`
}

// catalog mirrors the agent roster understood by the swarm CLI. Order is
// significant: the UI renders categories in this order.
var catalog = []Category{
	{Name: "coordination", Agents: []string{"queen", "coordinator"}},
	{Name: "development", Agents: []string{"coder", "architect", "reviewer", "tester"}},
	{Name: "analysis", Agents: []string{"researcher", "analyst", "optimizer"}},
	{Name: "support", Agents: []string{"documenter", "monitor", "specialist"}},
}

// Catalog returns the agent categories. The returned slice is a copy; callers
// may not mutate the catalog.
func Catalog() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		agents := make([]string, len(c.Agents))
		copy(agents, c.Agents)
		out[i] = Category{Name: c.Name, Agents: agents}
	}
	return out
}

// Known reports whether tag names a valid agent type.
func Known(tag string) bool {
	for _, c := range catalog {
		for _, a := range c.Agents {
			if a == tag {
				return true
			}
		}
	}
	return false
}
