package mapping

// Palette provides the color sets used by default scales.
type Palette struct {
	Categories []Literal
	Low        Literal
	Mid        Literal
	High       Literal
	Unknown    Literal
}

// DefaultPalette returns the palette used when a snapshot does not set
// its own colors. Categories feed ordinal scales such as cluster ids.
func DefaultPalette() *Palette {
	return &Palette{
		Categories: []Literal{
			"#4285f4", // blue
			"#ea4335", // red
			"#fbbc05", // yellow
			"#34a853", // green
			"#673ab7", // purple
			"#3f51b5", // indigo
			"#00bcd4", // cyan
			"#009688", // teal
			"#ff5722", // deep orange
			"#795548", // brown
		},
		Low:     "#7fffd4",
		Mid:     "#778899",
		High:    "#ff4500",
		Unknown: "#696969",
	}
}

// CategoryScale returns an ordinal scale over the palette categories.
func (p *Palette) CategoryScale(field string) Scale {
	return Scale{
		Field:   field,
		Type:    Ordinal,
		Range:   append([]Literal(nil), p.Categories...),
		Unknown: p.Unknown,
	}
}
