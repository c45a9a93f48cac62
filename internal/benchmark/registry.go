package benchmark

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultRegion is the region used when none is requested or the requested one is unknown
const DefaultRegion = "Bangalore"

// Model describes the expected payout distribution of a region
type Model struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Registry is an immutable set of region models with a default region.
// It is safe for concurrent use.
type Registry struct {
	defaultRegion string
	models        map[string]Model
}

// NewRegistry validates the models and builds a Registry
func NewRegistry(defaultRegion string, models map[string]Model) (*Registry, error) {
	if len(models) == 0 {
		return nil, errors.New("at least one region model is required")
	}
	if _, ok := models[defaultRegion]; !ok {
		return nil, fmt.Errorf("default region %q has no model", defaultRegion)
	}

	copied := make(map[string]Model, len(models))
	for name, m := range models {
		if math.IsNaN(m.Mean) || math.IsInf(m.Mean, 0) {
			return nil, fmt.Errorf("region %q: mean must be finite", name)
		}
		if !(m.StdDev > 0) || math.IsInf(m.StdDev, 0) {
			return nil, fmt.Errorf("region %q: std_dev must be positive, got %v", name, m.StdDev)
		}
		copied[name] = m
	}

	return &Registry{
		defaultRegion: defaultRegion,
		models:        copied,
	}, nil
}

// builtinRegistry holds the bundled city models
var builtinRegistry = mustRegistry(DefaultRegion, map[string]Model{
	"Bangalore": {Mean: 1250.0, StdDev: 300.0},
	"Mumbai":    {Mean: 1400.0, StdDev: 350.0},
	"Delhi":     {Mean: 1300.0, StdDev: 320.0},
})

func mustRegistry(defaultRegion string, models map[string]Model) *Registry {
	r, err := NewRegistry(defaultRegion, models)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the bundled city models
func DefaultRegistry() *Registry {
	return builtinRegistry
}

// registryFile is the on-disk layout accepted by LoadRegistry
type registryFile struct {
	DefaultRegion string           `yaml:"default_region"`
	Regions       map[string]Model `yaml:"regions"`
}

// LoadRegistry reads region models from a YAML file
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading region file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes region models from YAML.
// default_region may be omitted when the file defines Bangalore.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding region file: %w", err)
	}
	if file.DefaultRegion == "" {
		file.DefaultRegion = DefaultRegion
	}
	r, err := NewRegistry(file.DefaultRegion, file.Regions)
	if err != nil {
		return nil, fmt.Errorf("validating region file: %w", err)
	}
	return r, nil
}

// Default returns the name of the default region
func (r *Registry) Default() string {
	return r.defaultRegion
}

// Regions returns the registered region names in sorted order
func (r *Registry) Regions() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model returns the model registered for region, if any
func (r *Registry) Model(region string) (Model, bool) {
	m, ok := r.models[region]
	return m, ok
}

// Resolve returns the region whose model applies to the request and the model itself.
// Unknown regions resolve to the default; recognized reports whether region was found.
func (r *Registry) Resolve(region string) (name string, model Model, recognized bool) {
	if m, ok := r.models[region]; ok {
		return region, m, true
	}
	return r.defaultRegion, r.models[r.defaultRegion], false
}
