package types

import (
	"fmt"
	"regexp"
	"strings"
)

// ColorTheme is a named resume color preset.
type ColorTheme struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HeadingStyle string `json:"headingStyle"`
	BorderStyle  string `json:"borderStyle"`
	AccentStyle  string `json:"accentStyle"`
	Hex          string `json:"hex"`
}

// CustomThemeID selects a user-supplied hex color instead of a preset.
const CustomThemeID = "custom"

// DefaultThemeID is used when no theme is requested.
const DefaultThemeID = "navy"

// Themes is the fixed catalog of presets.
var Themes = []ColorTheme{
	{ID: "navy", Name: "Navy", HeadingStyle: "heading-navy", BorderStyle: "border-navy", AccentStyle: "accent-navy", Hex: "#1F3A5F"},
	{ID: "charcoal", Name: "Charcoal", HeadingStyle: "heading-charcoal", BorderStyle: "border-charcoal", AccentStyle: "accent-charcoal", Hex: "#333333"},
	{ID: "emerald", Name: "Emerald", HeadingStyle: "heading-emerald", BorderStyle: "border-emerald", AccentStyle: "accent-emerald", Hex: "#047857"},
	{ID: "crimson", Name: "Crimson", HeadingStyle: "heading-crimson", BorderStyle: "border-crimson", AccentStyle: "accent-crimson", Hex: "#9F1239"},
	{ID: "violet", Name: "Violet", HeadingStyle: "heading-violet", BorderStyle: "border-violet", AccentStyle: "accent-violet", Hex: "#5B21B6"},
	{ID: "teal", Name: "Teal", HeadingStyle: "heading-teal", BorderStyle: "border-teal", AccentStyle: "accent-teal", Hex: "#0F766E"},
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ResolveTheme returns the preset for id, or a custom theme built from hex when
// id is "custom". An empty id selects the default preset.
func ResolveTheme(id, customHex string) (ColorTheme, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = DefaultThemeID
	}
	if id == CustomThemeID {
		if !hexColorPattern.MatchString(customHex) {
			return ColorTheme{}, fmt.Errorf("invalid custom color %q: expected #RRGGBB", customHex)
		}
		return ColorTheme{
			ID:           CustomThemeID,
			Name:         "Custom",
			HeadingStyle: "heading-custom",
			BorderStyle:  "border-custom",
			AccentStyle:  "accent-custom",
			Hex:          strings.ToUpper(customHex),
		}, nil
	}
	for _, t := range Themes {
		if t.ID == id {
			return t, nil
		}
	}
	return ColorTheme{}, fmt.Errorf("unknown theme %q", id)
}
