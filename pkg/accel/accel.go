package accel

import "strings"

// Modifier bits, laid out the way IBus and GDK lay them out on the wire.
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3
	Mod2Mask    uint32 = 1 << 4
	Mod3Mask    uint32 = 1 << 5
	Mod4Mask    uint32 = 1 << 6
	Mod5Mask    uint32 = 1 << 7

	HandledMask uint32 = 1 << 24
	ForwardMask uint32 = 1 << 25
	SuperMask   uint32 = 1 << 26
	HyperMask   uint32 = 1 << 27
	MetaMask    uint32 = 1 << 28
	ReleaseMask uint32 = 1 << 30

	ModifierMask uint32 = 0x5c001fff
)

var modMasks = [...]uint32{Mod1Mask, Mod2Mask, Mod3Mask, Mod4Mask, Mod5Mask}

// Parse turns an accelerator such as "<Control><Shift>space" into a keysym
// and a modifier mask. It never fails: unknown modifier names are skipped,
// an unknown or missing key yields keysym 0.
func Parse(accelerator string) (keysym uint32, modifiers uint32) {
	_, keysym, modifiers = parse(accelerator)
	return keysym, modifiers
}

func parse(accelerator string) (key string, keysym uint32, modifiers uint32) {
	rest := accelerator
	lindex := strings.IndexByte(rest, '<')
	rindex := strings.IndexByte(rest, '>')

	for lindex >= 0 && rindex > lindex+1 {
		modifiers |= modifierFromName(strings.ToLower(rest[lindex+1 : rindex]))

		rest = rest[rindex+1:]
		if rest == "" {
			break
		}

		lindex = strings.IndexByte(rest, '<')
		rindex = strings.IndexByte(rest, '>')
	}

	if rest != "" {
		keysym = KeysymFromName(rest)
	}

	return rest, keysym, modifiers
}

func modifierFromName(name string) uint32 {
	switch name {
	case "release":
		return ReleaseMask
	case "primary", "control", "ctrl", "ctl":
		return ControlMask
	case "shift", "shft":
		return ShiftMask
	case "alt":
		return Mod1Mask
	case "meta":
		return MetaMask
	case "hyper", "super":
		// no devirtualization available here, both land on mod4
		return Mod4Mask
	}

	if len(name) == 4 && strings.HasPrefix(name, "mod") {
		n := int(name[3] - '1')
		if n >= 0 && n < len(modMasks) {
			return modMasks[n]
		}
	}

	return 0
}
