package status

import (
	"codeberg.org/miketth/imswitch/pkg/settings"
	"go.uber.org/zap"
)

// Panel stands in for the candidate window, which is drawn by the IBus
// panel process. It remembers the lookup table orientation so that it can
// be reported in the status.
type Panel struct {
	log         *zap.SugaredLogger
	orientation int32
}

func NewPanel(log *zap.SugaredLogger) *Panel {
	return &Panel{log: log, orientation: settings.OrientationHorizontal}
}

func (p *Panel) SetOrientation(orientation int32) {
	p.orientation = orientation
	p.log.Debugw("lookup table orientation", "orientation", OrientationName(orientation))
}

func (p *Panel) Orientation() int32 {
	return p.orientation
}

func OrientationName(orientation int32) string {
	switch orientation {
	case settings.OrientationHorizontal:
		return "horizontal"
	case settings.OrientationVertical:
		return "vertical"
	}
	return "system"
}
