package hyprland

import (
	"codeberg.org/miketth/imswitch/pkg/layout"
)

type keyboard struct {
	Name              string `json:"name"`
	Layout            string `json:"layout"`
	Variant           string `json:"variant"`
	Options           string `json:"options"`
	ActiveKeymap      string `json:"active_keymap"`
	ActiveLayoutIndex *int   `json:"active_layout_index"`
	Main              bool   `json:"main"`
}

type devices struct {
	Keyboards []keyboard `json:"keyboards"`
}

// Keyboard is one keyboard device as hyprctl reports it.
type Keyboard struct {
	Name         string
	Config       layout.Config
	ActiveKeymap string
	// ActiveIndex is -1 on Hyprland versions that do not report it.
	ActiveIndex int
	Main        bool
}

func (k keyboard) ToKeyboard() Keyboard {
	active := -1
	if k.ActiveLayoutIndex != nil {
		active = *k.ActiveLayoutIndex
	}

	return Keyboard{
		Name: k.Name,
		Config: layout.Config{
			Layout:  k.Layout,
			Variant: k.Variant,
			Options: k.Options,
		},
		ActiveKeymap: k.ActiveKeymap,
		ActiveIndex:  active,
		Main:         k.Main,
	}
}
