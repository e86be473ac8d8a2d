package tool

import (
	"slices"
	"strings"
	"sync"

	"github.com/leofalp/finchat/providers/ai"
)

// Catalog is a concurrency-safe set of tools keyed by case-insensitive name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

func NewCatalog(tools ...GenericTool) *Catalog {
	c := &Catalog{tools: make(map[string]GenericTool, len(tools))}
	c.Add(tools...)
	return c
}

// Add registers tools, replacing any with the same name.
func (c *Catalog) Add(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		c.tools[strings.ToLower(t.ToolInfo().Name)] = t
	}
}

func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[strings.ToLower(name)]
	return t, ok
}

func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Descriptions returns the tool descriptions sorted by name, so requests
// built from the same catalog are identical.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	out := make([]ai.ToolDescription, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t.ToolInfo())
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b ai.ToolDescription) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
