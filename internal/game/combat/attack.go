package combat

import "github.com/cory-johannsen/mudcore/internal/game/inventory"

// AttackKind names what delivered a blow. The empty kind is an ordinary
// weapon or innate hit whose wording comes from the attack table; every
// other kind is a skill or an effect named in messages by its own noun.
type AttackKind string

const (
	AttackHit       AttackKind = ""
	AttackBackstab  AttackKind = "backstab"
	AttackKick      AttackKind = "kick"
	AttackBash      AttackKind = "bash"
	AttackTrip      AttackKind = "trip"
	AttackDirt      AttackKind = "kicked dirt"
	AttackPoison    AttackKind = "poison"
	AttackPlague    AttackKind = "sickness"
	AttackVampiric  AttackKind = "life drain"
	AttackFlaming   AttackKind = "flames"
	AttackFrost     AttackKind = "frost"
	AttackShocking  AttackKind = "lightning"
	AttackSuffering AttackKind = "suffering"
)

// IsWeaponHit reports whether k is a direct melee hit that parry, dodge and
// shield block may negate.
func (k AttackKind) IsWeaponHit() bool { return k == AttackHit }

// Attack describes one blow. It is built per attack and never persisted.
type Attack struct {
	Attacker *Combatant
	Victim   *Combatant
	Kind     AttackKind
	// Weapon is the item swung, nil for unarmed or innate attacks.
	Weapon *inventory.Item
	// Secondary marks an off-hand swing.
	Secondary bool
	DamType   DamageType
	// Index is the attack table row used for wording when Kind is AttackHit.
	Index int
	// Defended is set once parry, dodge and block have been rolled for this blow.
	Defended bool
}

// Outcome is the result of a to-hit roll or a defense check.
type Outcome int

const (
	NoOp Outcome = iota
	Miss
	Hit
	Parried
	Dodged
	Blocked
)

func (o Outcome) String() string {
	switch o {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case Parried:
		return "parried"
	case Dodged:
		return "dodged"
	case Blocked:
		return "blocked"
	default:
		return "noop"
	}
}

// Negates reports whether o is a successful defense.
func (o Outcome) Negates() bool { return o == Parried || o == Dodged || o == Blocked }

// HitResult is the to-hit verdict and the d20 that produced it.
type HitResult struct {
	Outcome Outcome
	Roll    int
}

// DamageResult reports what ApplyDamage did.
type DamageResult struct {
	// Survived is false once the victim is dead.
	Survived bool
	// Dealt is the health actually removed.
	Dealt int
	// Immune is set when the victim's immunity zeroed the blow.
	Immune bool
	// Negated is the defense that stopped the blow, NoOp when none did.
	Negated Outcome
	// Refused is set when the safety gate disallowed the attack.
	Refused bool
}
