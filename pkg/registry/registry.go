// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// Registry is the immutable team configuration table, constructed once at
// startup and injected into the intake pipeline.
type Registry struct {
	bySlug        map[string]*TeamDescriptor
	byDisplayName map[string]*TeamDescriptor
	order         []string // slugs in declaration order, for deterministic scans
}

// New builds a registry from descriptors, rejecting duplicate slugs and
// duplicate display names (the display name is the partition key).
func New(teams []TeamDescriptor) (*Registry, error) {
	r := &Registry{
		bySlug:        make(map[string]*TeamDescriptor, len(teams)),
		byDisplayName: make(map[string]*TeamDescriptor, len(teams)),
	}

	for i := range teams {
		t := teams[i]
		if t.Slug == "" || t.DisplayName == "" {
			return nil, fmt.Errorf("team descriptor %d: slug and displayName are required", i)
		}
		if _, exists := r.bySlug[t.Slug]; exists {
			return nil, fmt.Errorf("duplicate team slug %q", t.Slug)
		}
		if _, exists := r.byDisplayName[t.DisplayName]; exists {
			return nil, fmt.Errorf("duplicate team display name %q", t.DisplayName)
		}
		r.bySlug[t.Slug] = &t
		r.byDisplayName[t.DisplayName] = &t
		r.order = append(r.order, t.Slug)
	}

	return r, nil
}

// Load reads team descriptors from a JSON file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file teamFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse team registry: %w", err)
	}
	return New(file.Teams)
}

// ResolveTeam looks a descriptor up by its display name, the exact
// case-sensitive value submitted in the basic details.
func (r *Registry) ResolveTeam(displayName string) (*TeamDescriptor, bool) {
	d, ok := r.byDisplayName[displayName]
	return d, ok
}

// BySlug looks a descriptor up by its stable slug.
func (r *Registry) BySlug(slug string) (*TeamDescriptor, bool) {
	d, ok := r.bySlug[slug]
	return d, ok
}

// HeadersFor returns the ordered column headers for a slug.
func (r *Registry) HeadersFor(slug string) ([]string, bool) {
	d, ok := r.bySlug[slug]
	if !ok {
		return nil, false
	}
	return d.Headers(), true
}

// Teams returns every descriptor in declaration order.
func (r *Registry) Teams() []*TeamDescriptor {
	out := make([]*TeamDescriptor, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}

// Default returns the built-in recruitment tracks.
func Default() *Registry {
	r, err := New([]TeamDescriptor{
		{
			Slug:        "technical",
			DisplayName: "Technical",
			Questions: []Question{
				{Key: "languages", Header: "Languages Known"},
				{Key: "projects", Header: "Projects"},
				{Key: "github", Header: "GitHub Profile"},
				{Key: "whyTechnical", Header: "Why Technical"},
			},
		},
		{
			Slug:        "design",
			DisplayName: "Design",
			Questions: []Question{
				{Key: "tools", Header: "Tools Used"},
				{Key: "portfolio", Header: "Portfolio Link"},
				{Key: "experience", Header: "Design Experience"},
				{Key: "whyDesign", Header: "Why Design"},
			},
		},
		{
			Slug:        "content",
			DisplayName: "Content",
			Questions: []Question{
				{Key: "samples", Header: "Writing Samples"},
				{Key: "experience", Header: "Content Experience"},
				{Key: "whyContent", Header: "Why Content"},
			},
		},
		{
			Slug:        "management",
			DisplayName: "Management",
			Questions: []Question{
				{Key: "events", Header: "Events Managed"},
				{Key: "leadership", Header: "Leadership Experience"},
				{Key: "whyManagement", Header: "Why Management"},
			},
		},
	})
	if err != nil {
		// The built-in table is static; a constraint violation here is a
		// programming error.
		panic(err)
	}
	return r
}
