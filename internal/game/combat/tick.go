package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/affect"
)

// AffectTick runs one game tick: pools regenerate, affects count down and
// wear off, plague and poison hurt their hosts, the dying bleed and floor
// items decay.
func (e *Engine) AffectTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.affectTick()
}

func (e *Engine) affectTick() {
	ids := append([]string(nil), e.order...)
	for _, id := range ids {
		c := e.lookup(id)
		if c == nil {
			continue
		}
		e.regen(c)
		if c.Position == PosStunned {
			UpdatePosition(c)
		}
		if c.IsPlayer() {
			c.Timer++
			c.Drunk = max(0, c.Drunk-1)
		}
		e.wearOff(c)
		e.suffer(c)
	}

	for _, d := range e.floor.Tick() {
		e.env.Messenger.ToRoom(d.RoomID, d.Message)
	}
}

// regen restores a share of every pool according to position. Poison and
// plague slow recovery to a quarter.
func (e *Engine) regen(c *Combatant) {
	if c.Position < PosStunned || c.Fighting != "" {
		return
	}
	pct, ok := e.rules.Regen[c.Position.String()]
	if !ok || pct <= 0 {
		return
	}
	gain := func(maxv int) int {
		g := max(1, maxv*pct/100)
		if c.IsAffected(affect.Poison) || c.IsAffected(affect.Plague) {
			g /= 4
		}
		return g
	}
	c.Health += gain(c.MaxHealth)
	c.Mana += gain(c.MaxMana)
	c.Stamina += gain(c.MaxStamina)
	c.clampPools()
}

// wearOff counts c's affects down and announces each type that is now
// entirely gone.
func (e *Engine) wearOff(c *Combatant) {
	expired := c.Affects.Tick(c, e.env.RNG)
	seen := make(map[string]bool, len(expired))
	for _, a := range expired {
		if seen[a.Type] || c.Affects.Has(a.Type) {
			continue
		}
		seen[a.Type] = true
		def, ok := e.affects.Get(a.Type)
		if !ok {
			continue
		}
		if def.WearOff != "" {
			e.tell(c, def.WearOff)
		}
		if def.RoomWearOff != "" {
			e.act(def.RoomWearOff, c, nil, nil, toRoom)
		}
	}
}

// suffer applies the tick's ongoing harm: plague first, else poison, else
// bleeding out.
func (e *Engine) suffer(c *Combatant) {
	self := func(kind AttackKind, dt DamageType, dam int) {
		e.damage(&Attack{Attacker: c, Victim: c, Kind: kind, DamType: dt}, dam, false)
	}

	switch {
	case c.IsAffected(affect.Plague):
		e.act("$n writhes in agony as plague sores erupt from $s skin.", c, nil, nil, toRoom)
		e.tell(c, "You writhe in agony from the plague.")
		af, ok := c.Affects.Find("plague")
		if !ok {
			c.RemoveFlags(affect.Plague)
			return
		}
		if af.Level <= 1 {
			return
		}
		e.spreadPlague(c, af)
		dam := min(c.Level, af.Level/5+1)
		c.Mana -= dam
		c.Stamina -= dam
		self(AttackPlague, DamDisease, dam)

	case c.IsAffected(affect.Poison) && !c.IsAffected(affect.Slow):
		af, ok := c.Affects.Find("poison")
		if !ok {
			return
		}
		e.act("$n shivers and suffers.", c, nil, nil, toRoom)
		e.tell(c, "You shiver and suffer.")
		self(AttackPoison, DamPoison, af.Level/10+1)

	case c.Position == PosIncap:
		if e.env.RNG.Range(0, 1) == 0 {
			self(AttackSuffering, DamNone, 1)
		}

	case c.Position == PosMortal:
		self(AttackSuffering, DamNone, 1)
	}
}

// spreadPlague gives everyone in c's room a chance to catch a weaker strain.
func (e *Engine) spreadPlague(c *Combatant, af affect.Affect) {
	level := af.Level - 1
	for _, vch := range e.inRoom(c.Room) {
		if vch == c || e.isImmortal(vch) || vch.IsAffected(affect.Plague) {
			continue
		}
		if e.env.SavesSpell(level-2, vch, DamDisease) || e.env.RNG.Bits(4) != 0 {
			continue
		}
		e.tell(vch, "You feel hot and feverish.")
		e.act("$n shivers and looks very ill.", vch, nil, nil, toRoom)
		vch.Affects.Join(vch, affect.Affect{
			Type:     "plague",
			Level:    level,
			Duration: e.env.RNG.Range(1, 2*level),
			Location: affect.LocStrength,
			Modifier: -5,
			Bit:      affect.Plague,
		})
		e.logger.Debug("plague spread",
			zap.String("from", c.Name),
			zap.String("to", vch.Name),
			zap.Int("level", level),
		)
	}
}
