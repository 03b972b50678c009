package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"zabbix-chatops/internal/models"

	"gopkg.in/yaml.v3"
)

// Catalog is the static, read-only set of alert definitions.
type Catalog struct {
	definitions []*models.AlertDefinition
	byName      map[string]*models.AlertDefinition
}

type catalogFile struct {
	Alerts []models.AlertDefinition `yaml:"alerts"`
}

// Default returns the built-in definitions.
func Default() *Catalog {
	c, _ := New([]models.AlertDefinition{
		{Name: "CPU Usage", Description: "High CPU usage detected", Severity: "High", Threshold: 90, Unit: "%", Host: "SRV-APP01", Item: "CPU | Usage"},
		{Name: "Memory Usage", Description: "High memory consumption", Severity: "High", Threshold: 95, Unit: "%", Host: "SRV-DB01", Item: "Memory | Usage"},
		{Name: "Disk Space", Description: "Low disk space available", Severity: "High", Threshold: 90, Unit: "%", Host: "SRV-STORAGE", Item: "FS | Space Used, in %"},
		{Name: "Network Traffic", Description: "Excessive network traffic", Severity: "High", Threshold: 95, Unit: "Mbps", Host: "ROUTER-MAIN", Item: "Interface | Traffic"},
		{Name: "Database Connections", Description: "Too many database connections", Severity: "High", Threshold: 200, Unit: "connections", Host: "DB-MASTER", Item: "MySQL | Connections"},
	})
	return c
}

// New builds a catalog. Names must be non-empty and unique.
func New(defs []models.AlertDefinition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.New("catalog must contain at least one alert definition")
	}
	c := &Catalog{byName: make(map[string]*models.AlertDefinition, len(defs))}
	for i := range defs {
		def := defs[i]
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("alert definition #%d has no name", i+1)
		}
		if _, dup := c.byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate alert definition %q", def.Name)
		}
		c.definitions = append(c.definitions, &def)
		c.byName[def.Name] = &def
	}
	return c, nil
}

// Load reads definitions from a YAML file. An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return New(file.Alerts)
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []*models.AlertDefinition {
	out := make([]*models.AlertDefinition, len(c.definitions))
	copy(out, c.definitions)
	return out
}

// Lookup finds a definition by exact name.
func (c *Catalog) Lookup(name string) (*models.AlertDefinition, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// Match returns the first definition whose name occurs in subject, falling back
// to the first definition of the catalog.
func (c *Catalog) Match(subject string) *models.AlertDefinition {
	for _, def := range c.definitions {
		if strings.Contains(subject, def.Name) {
			return def
		}
	}
	return c.definitions[0]
}

// Random picks a definition using rng.
func (c *Catalog) Random(rng *rand.Rand) *models.AlertDefinition {
	return c.definitions[rng.Intn(len(c.definitions))]
}
