// Package stuff provides item definitions loaded from YAML and the item
// instances characters carry into a fight.
package stuff

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Properties defines the static characteristics of an item kind.
type Properties struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Weapon       bool     `yaml:"weapon"`
	Shield       bool     `yaml:"shield"`
	Armor        bool     `yaml:"armor"`
	Damages      float64  `yaml:"damages"`
	Sharp        int      `yaml:"sharp"`
	Estoc        int      `yaml:"estoc"`
	Blunt        int      `yaml:"blunt"`
	ProtectSharp int      `yaml:"protect_sharp"`
	ProtectEstoc int      `yaml:"protect_estoc"`
	ProtectBlunt int      `yaml:"protect_blunt"`
	SkillsBonus  []string `yaml:"skills_bonus"`
}

// Validate checks that the definition satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (p *Properties) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if p.Damages < 0 {
		errs = append(errs, errors.New("damages must be >= 0"))
	}
	for name, v := range map[string]int{
		"sharp": p.Sharp, "estoc": p.Estoc, "blunt": p.Blunt,
		"protect_sharp": p.ProtectSharp, "protect_estoc": p.ProtectEstoc, "protect_blunt": p.ProtectBlunt,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0", name))
		}
	}
	return errors.Join(errs...)
}

// Stuff is an item instance. Stats are copied from its Properties when the
// item is created.
type Stuff struct {
	ID           int64
	PropertiesID string
	Name         string
	Damages      float64
	Sharp        int
	Estoc        int
	Blunt        int
	ProtectSharp int
	ProtectEstoc int
	ProtectBlunt int
}

// CorpsePropertiesID identifies the remains a character leaves when it dies.
const CorpsePropertiesID = "CORPSE"

// Corpse returns the remains of the character called name.
func Corpse(name string) Stuff {
	return Stuff{PropertiesID: CorpsePropertiesID, Name: "Cadavre de " + name}
}

// Clone returns a copy of s, or nil for a nil receiver.
func (s *Stuff) Clone() *Stuff {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// LoadProperties reads all *.yaml files from dir. Each file holds a list of
// definitions.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid definitions or the first encountered error.
func LoadProperties(dir string) ([]*Properties, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadProperties: cannot read directory %q: %w", dir, err)
	}

	var out []*Properties
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadProperties: cannot read file %q: %w", path, err)
		}
		var defs []*Properties
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("LoadProperties: cannot parse file %q: %w", path, err)
		}
		for _, p := range defs {
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("LoadProperties: invalid stuff %q in %q: %w", p.ID, path, err)
			}
		}
		out = append(out, defs...)
	}
	return out, nil
}

// Catalog indexes stuff definitions by id.
type Catalog struct {
	byID map[string]*Properties
}

// NewCatalog builds a Catalog.
//
// Postcondition: returns an error if two definitions share an id.
func NewCatalog(defs []*Properties) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Properties, len(defs))}
	for _, d := range defs {
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("stuff catalog: duplicate id %q", d.ID)
		}
		c.byID[d.ID] = d
	}
	return c, nil
}

// Properties returns the definition registered under id.
func (c *Catalog) Properties(id string) (*Properties, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.byID[id]
	return p, ok
}

// IDs returns the registered ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New builds an unsaved item instance of kind id.
func (c *Catalog) New(id string) (*Stuff, error) {
	p, ok := c.Properties(id)
	if !ok {
		return nil, fmt.Errorf("stuff catalog: unknown id %q", id)
	}
	return &Stuff{
		PropertiesID: p.ID,
		Name:         p.Name,
		Damages:      p.Damages,
		Sharp:        p.Sharp,
		Estoc:        p.Estoc,
		Blunt:        p.Blunt,
		ProtectSharp: p.ProtectSharp,
		ProtectEstoc: p.ProtectEstoc,
		ProtectBlunt: p.ProtectBlunt,
	}, nil
}
