package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrRulesetVersion is returned when a ruleset file declares a version this
// build does not understand.
var ErrRulesetVersion = errors.New("unsupported ruleset version")

// Load reads a ruleset file, choosing the decoder by extension (.yaml, .yml,
// .toml). Values absent from the file keep their Default.
//
// Precondition: path must name a readable file.
// Postcondition: Returns validated Rules or a non-nil error.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return LoadTOML(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return nil, fmt.Errorf("ruleset %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

// LoadYAML decodes a YAML ruleset over the defaults.
func LoadYAML(data []byte) (*Rules, error) {
	r := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(r); err != nil {
		return nil, fmt.Errorf("parsing ruleset YAML: %w", err)
	}
	return r, r.Validate()
}

// LoadTOML decodes a TOML ruleset over the defaults.
func LoadTOML(data []byte) (*Rules, error) {
	r := Default()
	md, err := toml.Decode(string(data), r)
	if err != nil {
		return nil, fmt.Errorf("parsing ruleset TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing ruleset TOML: unknown keys %v", undecoded)
	}
	return r, r.Validate()
}

// Validate checks all ruleset invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (r *Rules) Validate() error {
	if r.Version != CurrentVersion {
		return fmt.Errorf("%w: %q (want %q)", ErrRulesetVersion, r.Version, CurrentVersion)
	}
	var errs []string
	if r.MaxLevel < 1 {
		errs = append(errs, "max_level must be >= 1")
	}
	if r.ImmortalLevel < 1 || r.ImmortalLevel > r.MaxLevel {
		errs = append(errs, "immortal_level must be within [1, max_level]")
	}
	if r.InterpolationSpan < 1 {
		errs = append(errs, "interpolation_span must be >= 1")
	}
	if r.PulseViolence < 2 {
		errs = append(errs, "pulse_violence must be >= 2")
	}
	if _, ok := r.NPCRoles["default"]; !ok {
		errs = append(errs, `npc_roles must define "default"`)
	}
	if r.Damage.Ceiling < 1 {
		errs = append(errs, "damage.ceiling must be >= 1")
	}
	for i := 1; i < len(r.Damage.SoftCaps); i++ {
		if r.Damage.SoftCaps[i] <= r.Damage.SoftCaps[i-1] {
			errs = append(errs, "damage.soft_caps must be strictly increasing")
			break
		}
	}
	if r.Damage.ArmorDivisor < 1 {
		errs = append(errs, "damage.armor_divisor must be >= 1")
	}
	for name, s := range map[string]Span{
		"npc_decay": r.Corpse.NPCDecay, "player_decay": r.Corpse.PlayerDecay,
		"potion_decay": r.Corpse.PotionDecay, "scroll_decay": r.Corpse.ScrollDecay,
		"rot_death": r.Corpse.RotDeath, "severed_part": r.Corpse.SeveredPart,
	} {
		if s.Min < 0 || s.Max < s.Min {
			errs = append(errs, fmt.Sprintf("corpse.%s must satisfy 0 <= min <= max", name))
		}
	}
	if len(r.XP.BaseTable) == 0 {
		errs = append(errs, "xp.base_table must not be empty")
	}
	for _, row := range r.XP.Matrix {
		for _, m := range row.Victim {
			if m.Den == 0 {
				errs = append(errs, fmt.Sprintf("xp.matrix %q: den must not be zero", row.Name))
			}
		}
	}
	if r.XP.PlaytimeMin < 1 || r.XP.PlaytimeMax < r.XP.PlaytimeMin {
		errs = append(errs, "xp.playtime_min/max must satisfy 1 <= min <= max")
	}
	if r.XP.HighLevel <= r.XP.HighOffset {
		errs = append(errs, "xp.high_level must exceed xp.high_offset")
	}
	if r.XP.ExpPerLevel < 1 {
		errs = append(errs, "xp.exp_per_level must be >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("ruleset validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
