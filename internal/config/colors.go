package config

import (
	"fmt"

	"github.com/derailed/tcell/v2"
)

// Color is a theme color, either a hex value or a named tcell color.
type Color string

const (
	// DefaultColor maps to the terminal's default color
	DefaultColor Color = "default"

	// TransparentColor maps to the terminal background
	TransparentColor Color = "-"
)

// NewColor wraps a raw color string.
func NewColor(c string) Color {
	return Color(c)
}

// String normalizes the color to a hex string, or "-" when it has no
// concrete value.
func (c Color) String() string {
	if c.isHex() {
		return string(c)
	}
	if c == DefaultColor {
		return "-"
	}
	hex := c.Color().TrueColor().Hex()
	if hex < 0 {
		return "-"
	}
	return fmt.Sprintf("#%06x", hex)
}

func (c Color) isHex() bool {
	return len(c) == 7 && c[0] == '#'
}

// Color resolves to the tcell color used for drawing.
func (c Color) Color() tcell.Color {
	if c == DefaultColor {
		return tcell.ColorDefault
	}
	return tcell.GetColor(string(c)).TrueColor()
}

// MessageColors defines colors for message list states
type MessageColors struct {
	UnreadColor     Color `yaml:"unreadColor"`
	ReadColor       Color `yaml:"readColor"`
	SignedColor     Color `yaml:"signedColor"`
	AttachmentColor Color `yaml:"attachmentColor"`
	DraftColor      Color `yaml:"draftColor"`
}

// FrameColors defines colors for UI frame elements
type FrameColors struct {
	Border struct {
		FgColor    Color `yaml:"fgColor"`
		FocusColor Color `yaml:"focusColor"`
	} `yaml:"border"`
	Title struct {
		FgColor     Color `yaml:"fgColor"`
		BgColor     Color `yaml:"bgColor"`
		FilterColor Color `yaml:"filterColor"`
	} `yaml:"title"`
}

// TableColors defines colors for the message list table
type TableColors struct {
	FgColor       Color `yaml:"fgColor"`
	BgColor       Color `yaml:"bgColor"`
	HeaderFgColor Color `yaml:"headerFgColor"`
	HeaderBgColor Color `yaml:"headerBgColor"`
}

// BodyColors defines colors for body elements
type BodyColors struct {
	FgColor Color `yaml:"fgColor"`
	BgColor Color `yaml:"bgColor"`
}

// StatusColors defines colors for the status line
type StatusColors struct {
	InfoColor  Color `yaml:"infoColor"`
	ErrorColor Color `yaml:"errorColor"`
}

// ColorsConfig defines the complete color configuration
type ColorsConfig struct {
	Body    BodyColors    `yaml:"body"`
	Frame   FrameColors   `yaml:"frame"`
	Table   TableColors   `yaml:"table"`
	Message MessageColors `yaml:"message"`
	Status  StatusColors  `yaml:"status"`
}

// DefaultColors returns the default color configuration
func DefaultColors() *ColorsConfig {
	return &ColorsConfig{
		Body: BodyColors{
			FgColor: NewColor("#f8f8f2"),
			BgColor: NewColor("#282a36"),
		},
		Frame: FrameColors{
			Border: struct {
				FgColor    Color `yaml:"fgColor"`
				FocusColor Color `yaml:"focusColor"`
			}{
				FgColor:    NewColor("#44475a"),
				FocusColor: NewColor("#6272a4"),
			},
			Title: struct {
				FgColor     Color `yaml:"fgColor"`
				BgColor     Color `yaml:"bgColor"`
				FilterColor Color `yaml:"filterColor"`
			}{
				FgColor:     NewColor("#f8f8f2"),
				BgColor:     NewColor("#282a36"),
				FilterColor: NewColor("#8be9fd"),
			},
		},
		Table: TableColors{
			FgColor:       NewColor("#f8f8f2"),
			BgColor:       NewColor("#282a36"),
			HeaderFgColor: NewColor("#50fa7b"),
			HeaderBgColor: NewColor("#282a36"),
		},
		Message: MessageColors{
			UnreadColor:     NewColor("#ffb86c"),
			ReadColor:       NewColor("#6272a4"),
			SignedColor:     NewColor("#50fa7b"),
			AttachmentColor: NewColor("#8be9fd"),
			DraftColor:      NewColor("#f1fa8c"),
		},
		Status: StatusColors{
			InfoColor:  NewColor("#50fa7b"),
			ErrorColor: NewColor("#ff5555"),
		},
	}
}
