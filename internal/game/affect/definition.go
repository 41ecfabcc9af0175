package affect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy decides how a new affect combines with an existing one of the same type.
type Policy string

const (
	// PolicyAdd appends a second independent instance.
	PolicyAdd Policy = "add"
	// PolicyJoin merges into the existing instance.
	PolicyJoin Policy = "join"
)

// Def is the static definition of an affect type, loaded from YAML.
type Def struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Policy   Policy   `yaml:"policy"`
	Flags    Flags    `yaml:"flags"`
	Location Location `yaml:"location"`
	Modifier int      `yaml:"modifier"`
	// WearOff is sent to the holder when the affect expires.
	WearOff string `yaml:"wear_off"`
	// RoomWearOff is shown to the room, "$n" is the holder's name.
	RoomWearOff string `yaml:"room_wear_off"`
}

// Validate checks the definition's invariants.
func (d *Def) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	switch d.Policy {
	case "":
		d.Policy = PolicyAdd
	case PolicyAdd, PolicyJoin:
	default:
		errs = append(errs, fmt.Sprintf("policy must be add or join, got %q", d.Policy))
	}
	if len(errs) > 0 {
		return fmt.Errorf("affect %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// New builds an Affect of this type.
func (d *Def) New(level, duration int) Affect {
	return Affect{
		Type:     d.ID,
		Level:    level,
		Duration: duration,
		Location: d.Location,
		Modifier: d.Modifier,
		Bit:      d.Flags,
	}
}

// Registry holds all known affect definitions keyed by ID.
// It is read-only after loading.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def, replacing any previous definition with the same ID.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// PolicyFor returns the stacking policy of id; unknown types add.
func (r *Registry) PolicyFor(id string) Policy {
	if r == nil {
		return PolicyAdd
	}
	if d, ok := r.defs[id]; ok {
		return d.Policy
	}
	return PolicyAdd
}

// All returns every definition sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDefFromBytes strictly decodes and validates a single definition.
func LoadDefFromBytes(data []byte) (*Def, error) {
	var def Def
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing affect YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDirectory reads every *.yaml file in dir into a Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry or the first parse error.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading affect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadDefFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(def)
	}
	return reg, nil
}
