package combat

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cory-johannsen/mudcore/internal/game/inventory"
)

// Messenger delivers text to combatants and rooms.
type Messenger interface {
	ToChar(c *Combatant, msg string)
	ToRoom(roomID, msg string, exclude ...*Combatant)
}

// Discard is a Messenger that drops everything.
type Discard struct{}

// ToChar implements Messenger.
func (Discard) ToChar(*Combatant, string) {}

// ToRoom implements Messenger.
func (Discard) ToRoom(string, string, ...*Combatant) {}

type actTarget int

const (
	toChar actTarget = iota
	toVict
	toNotVict
	toRoom
)

// act expands format and delivers it. $n/$N are the actor's and victim's
// names, $e/$m/$s and $E/$M/$S their pronouns, $p the object's name.
func (e *Env) act(format string, ch *Combatant, obj *inventory.Item, vict *Combatant, to actTarget) {
	if format == "" || ch == nil {
		return
	}
	msg := expandAct(format, ch, obj, vict)
	switch to {
	case toChar:
		e.Messenger.ToChar(ch, msg)
	case toVict:
		if vict != nil && vict != ch {
			e.Messenger.ToChar(vict, msg)
		}
	case toNotVict:
		e.Messenger.ToRoom(ch.Room, msg, ch, vict)
	case toRoom:
		e.Messenger.ToRoom(ch.Room, msg, ch)
	}
}

func expandAct(format string, ch *Combatant, obj *inventory.Item, vict *Combatant) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '$' || i+1 == len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'n':
			b.WriteString(ch.Name)
		case 'e':
			b.WriteString(ch.Sex.subject())
		case 'm':
			b.WriteString(ch.Sex.object())
		case 's':
			b.WriteString(ch.Sex.possessive())
		case 'p':
			if obj != nil {
				b.WriteString(obj.Name)
			} else {
				b.WriteString("something")
			}
		case 'N', 'E', 'M', 'S':
			if vict == nil {
				b.WriteString("someone")
				continue
			}
			switch format[i] {
			case 'N':
				b.WriteString(vict.Name)
			case 'E':
				b.WriteString(vict.Sex.subject())
			case 'M':
				b.WriteString(vict.Sex.object())
			case 'S':
				b.WriteString(vict.Sex.possessive())
			}
		default:
			b.WriteByte('$')
			b.WriteByte(format[i])
		}
	}
	return capitalize(b.String())
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// damageBand is one row of the damage wording table: amounts up to Max use
// the second-person and third-person verbs.
type damageBand struct {
	Max          int
	You, Another string
}

var damageBands = []damageBand{
	{0, "miss", "misses"},
	{4, "scratch", "scratches"},
	{8, "graze", "grazes"},
	{12, "hit", "hits"},
	{16, "injure", "injures"},
	{20, "wound", "wounds"},
	{24, "maul", "mauls"},
	{28, "decimate", "decimates"},
	{32, "devastate", "devastates"},
	{36, "maim", "maims"},
	{40, "MUTILATE", "MUTILATES"},
	{44, "DISEMBOWEL", "DISEMBOWELS"},
	{48, "DISMEMBER", "DISMEMBERS"},
	{52, "MASSACRE", "MASSACRES"},
	{56, "MANGLE", "MANGLES"},
	{60, "*** DEMOLISH ***", "*** DEMOLISHES ***"},
	{75, "*** DEVASTATE ***", "*** DEVASTATES ***"},
	{100, "=== OBLITERATE ===", "=== OBLITERATES ==="},
	{125, ">>> ANNIHILATE <<<", ">>> ANNIHILATES <<<"},
	{150, "<<< ERADICATE >>>", "<<< ERADICATES >>>"},
}

// DamageVerbs returns the second- and third-person verbs describing dam.
func DamageVerbs(dam int) (you, another string) {
	for _, b := range damageBands {
		if dam <= b.Max {
			return b.You, b.Another
		}
	}
	return "do UNSPEAKABLE things to", "does UNSPEAKABLE things to"
}

// attackNoun names the blow for messages; "" means the plain verb form.
func (e *Env) attackNoun(a *Attack) string {
	if a.Kind != AttackHit {
		return string(a.Kind)
	}
	if a.Index == 0 {
		return ""
	}
	return e.Attacks.At(a.Index).Noun
}

// damMessage announces a blow of dam to attacker, victim and bystanders.
func (e *Env) damMessage(a *Attack, dam int, immune bool) {
	ch, victim := a.Attacker, a.Victim
	vs, vp := DamageVerbs(dam)
	punct := "."
	if dam > 24 {
		punct = "!"
	}

	var toRoomMsg, toCharMsg, toVictMsg string
	noun := e.attackNoun(a)
	switch {
	case noun == "" && ch == victim:
		toRoomMsg = fmt.Sprintf("$n %s $melf%s", vp, punct)
		toCharMsg = fmt.Sprintf("You %s yourself%s", vs, punct)
	case noun == "":
		toRoomMsg = fmt.Sprintf("$n %s $N%s", vp, punct)
		toCharMsg = fmt.Sprintf("You %s $N%s", vs, punct)
		toVictMsg = fmt.Sprintf("$n %s you%s", vp, punct)
	case immune && ch == victim:
		toRoomMsg = fmt.Sprintf("$n is unaffected by $s own %s.", noun)
		toCharMsg = "Luckily, you are immune to that."
	case immune:
		toRoomMsg = fmt.Sprintf("$N is unaffected by $n's %s!", noun)
		toCharMsg = fmt.Sprintf("$N is unaffected by your %s!", noun)
		toVictMsg = fmt.Sprintf("$n's %s is powerless against you.", noun)
	case ch == victim:
		toRoomMsg = fmt.Sprintf("$n's %s %s $m%s", noun, vp, punct)
		toCharMsg = fmt.Sprintf("Your %s %s you%s", noun, vp, punct)
	default:
		toRoomMsg = fmt.Sprintf("$n's %s %s $N%s", noun, vp, punct)
		toCharMsg = fmt.Sprintf("Your %s %s $N%s", noun, vp, punct)
		toVictMsg = fmt.Sprintf("$n's %s %s you%s", noun, vp, punct)
	}

	if ch == victim {
		e.act(toRoomMsg, ch, nil, nil, toRoom)
		e.act(toCharMsg, ch, nil, nil, toChar)
		return
	}
	e.act(toRoomMsg, ch, nil, victim, toNotVict)
	e.act(toCharMsg, ch, nil, victim, toChar)
	e.act(toVictMsg, ch, nil, victim, toVict)
}
