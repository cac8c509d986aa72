package canvas

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Stylesheet is the global styling applied on top of element attributes.
type Stylesheet struct {
	Dark              bool
	LabelColor        string
	TimeLowLabelColor string
	EdgeWidth         int
}

// NewStylesheet returns the dark or light stylesheet. Only label colours
// differ between the two.
func NewStylesheet(dark bool) Stylesheet {
	sheet := Stylesheet{
		Dark:              dark,
		LabelColor:        "black",
		TimeLowLabelColor: "red",
		EdgeWidth:         3,
	}
	if dark {
		sheet.LabelColor = "white"
	}
	return sheet
}

var namedColors = map[string]string{
	"black":     "#000000",
	"white":     "#FFFFFF",
	"red":       "#FF0000",
	"yellow":    "#FFFF00",
	"blue":      "#0000FF",
	"lightblue": "#ADD8E6",
	"green":     "#008000",
	"orange":    "#FFA500",
}

// termColor converts a CSS colour name or hex value to a lipgloss colour.
// Unknown names yield the terminal default.
func termColor(css string) lipgloss.TerminalColor {
	if strings.HasPrefix(css, "#") {
		return lipgloss.Color(css)
	}
	if hex, ok := namedColors[strings.ToLower(css)]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.NoColor{}
}
