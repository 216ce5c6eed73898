package key

import "github.com/gdamore/tcell/v2"

// FromTcell converts a tcell key event into an Event.
// Control-letter chords reported by tcell as KeyCtrlA..KeyCtrlZ are
// normalised to the letter with ModCtrl.
func FromTcell(ev *tcell.EventKey) Event {
	mods := convertTcellMod(ev.Modifiers())
	e := Event{Modifiers: mods, Timestamp: ev.When()}

	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		e.Key = KeyRune
		e.Rune = ev.Rune()
		return e
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ &&
		k != tcell.KeyTab && k != tcell.KeyEnter && k != tcell.KeyBackspace:
		e.Key = KeyRune
		e.Rune = rune('a' + (k - tcell.KeyCtrlA))
		e.Modifiers |= ModCtrl
		return e
	}

	e.Key = convertTcellKey(k)
	return e
}

func convertTcellKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyTab:
		return KeyTab
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyBackspace
	case tcell.KeyDelete:
		return KeyDelete
	case tcell.KeyHome:
		return KeyHome
	case tcell.KeyEnd:
		return KeyEnd
	case tcell.KeyPgUp:
		return KeyPageUp
	case tcell.KeyPgDn:
		return KeyPageDown
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyLeft:
		return KeyLeft
	case tcell.KeyRight:
		return KeyRight
	default:
		return KeyNone
	}
}

func convertTcellMod(m tcell.ModMask) Modifier {
	var mods Modifier
	if m&tcell.ModShift != 0 {
		mods |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= ModMeta
	}
	return mods
}
