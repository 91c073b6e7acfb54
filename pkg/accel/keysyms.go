package accel

import (
	"strconv"
	"strings"
)

// VoidSymbol is what an unresolvable key name maps to on the X side. Parse
// reports it as 0 so that callers only have one "no key" value to check.
const VoidSymbol uint32 = 0xffffff

var keysyms = map[string]uint32{
	"space":        0x0020,
	"exclam":       0x0021,
	"quotedbl":     0x0022,
	"numbersign":   0x0023,
	"dollar":       0x0024,
	"percent":      0x0025,
	"ampersand":    0x0026,
	"apostrophe":   0x0027,
	"parenleft":    0x0028,
	"parenright":   0x0029,
	"asterisk":     0x002a,
	"plus":         0x002b,
	"comma":        0x002c,
	"minus":        0x002d,
	"period":       0x002e,
	"slash":        0x002f,
	"colon":        0x003a,
	"semicolon":    0x003b,
	"less":         0x003c,
	"equal":        0x003d,
	"greater":      0x003e,
	"question":     0x003f,
	"at":           0x0040,
	"bracketleft":  0x005b,
	"backslash":    0x005c,
	"bracketright": 0x005d,
	"asciicircum":  0x005e,
	"underscore":   0x005f,
	"grave":        0x0060,
	"braceleft":    0x007b,
	"bar":          0x007c,
	"braceright":   0x007d,
	"asciitilde":   0x007e,

	"BackSpace": 0xff08,
	"Tab":       0xff09,
	"Return":    0xff0d,
	"Pause":     0xff13,
	"Escape":    0xff1b,
	"Delete":    0xffff,
	"Home":      0xff50,
	"Left":      0xff51,
	"Up":        0xff52,
	"Right":     0xff53,
	"Down":      0xff54,
	"Page_Up":   0xff55,
	"Page_Down": 0xff56,
	"End":       0xff57,
	"Insert":    0xff63,
	"Menu":      0xff67,

	"Multi_key":         0xff20,
	"Kanji":             0xff21,
	"Muhenkan":          0xff22,
	"Henkan":            0xff23,
	"Henkan_Mode":       0xff23,
	"Romaji":            0xff24,
	"Hiragana":          0xff25,
	"Katakana":          0xff26,
	"Hiragana_Katakana": 0xff27,
	"Zenkaku":           0xff28,
	"Hankaku":           0xff29,
	"Zenkaku_Hankaku":   0xff2a,
	"Eisu_toggle":       0xff30,
	"Hangul":            0xff31,
	"Hangul_Hanja":      0xff34,

	"Shift_L":          0xffe1,
	"Shift_R":          0xffe2,
	"Control_L":        0xffe3,
	"Control_R":        0xffe4,
	"Caps_Lock":        0xffe5,
	"Shift_Lock":       0xffe6,
	"Meta_L":           0xffe7,
	"Meta_R":           0xffe8,
	"Alt_L":            0xffe9,
	"Alt_R":            0xffea,
	"Super_L":          0xffeb,
	"Super_R":          0xffec,
	"Hyper_L":          0xffed,
	"Hyper_R":          0xffee,
	"ISO_Level3_Shift": 0xfe03,
	"ISO_Next_Group":   0xfe08,
	"ISO_Prev_Group":   0xfe0a,
}

func init() {
	for i := uint32(1); i <= 35; i++ {
		keysyms["F"+strconv.Itoa(int(i))] = 0xffbe + i - 1
	}
}

// KeysymFromName resolves an X keysym name. Single printable Latin-1
// characters map to themselves, "0x..." is read as a raw keysym value.
func KeysymFromName(name string) uint32 {
	if sym, ok := keysyms[name]; ok {
		return sym
	}

	runes := []rune(name)
	if len(runes) == 1 {
		r := runes[0]
		switch {
		case r >= 0x20 && r <= 0x7e, r >= 0xa0 && r <= 0xff:
			return uint32(r)
		case r > 0xff && r <= 0x10ffff:
			return 0x01000000 | uint32(r)
		}
	}

	if strings.HasPrefix(name, "0x") {
		v, err := strconv.ParseUint(name[2:], 16, 32)
		if err == nil && uint32(v) != VoidSymbol {
			return uint32(v)
		}
	}

	return 0
}

// ModifierForKeysym reports the modifier bit a modifier key contributes
// to the state while held, or 0 for ordinary keys.
func ModifierForKeysym(keysym uint32) uint32 {
	switch keysym {
	case keysyms["Shift_L"], keysyms["Shift_R"]:
		return ShiftMask
	case keysyms["Control_L"], keysyms["Control_R"]:
		return ControlMask
	case keysyms["Alt_L"], keysyms["Alt_R"], keysyms["Meta_L"], keysyms["Meta_R"]:
		return Mod1Mask
	case keysyms["Super_L"], keysyms["Super_R"], keysyms["Hyper_L"], keysyms["Hyper_R"]:
		return Mod4Mask
	}
	return 0
}
