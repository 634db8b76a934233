package domain

// Theme is a named UI color palette. Values are hex design tokens the web
// client maps onto CSS variables; the API only serves the catalog.
type Theme struct {
	ID    string            `json:"id"`
	Label string            `json:"label"`
	Vars  map[string]string `json:"vars"`
}

// Themes is the catalog served on /v1/themes, in display order.
var Themes = []Theme{
	{
		ID:    "vela-classic",
		Label: "Vela Classic",
		Vars: map[string]string{
			"bg": "#FFFFFF", "surface": "#F8FAFC", "text": "#0F172A", "muted": "#94A3B8",
			"accent": "#4ADE80", "accentContrast": "#0B1F0F", "accentAlt": "#3B82F6",
			"success": "#16A34A", "danger": "#EF4444", "warning": "#F59E0B",
			"border": "#E5E7EB", "ring": "#60A5FA",
		},
	},
	{
		ID:    "vela-graphite",
		Label: "Vela Graphite",
		Vars: map[string]string{
			"bg": "#F6F7F9", "surface": "#FFFFFF", "text": "#0B1220", "muted": "#6B7280",
			"accent": "#22C55E", "accentContrast": "#0B1F0F", "accentAlt": "#2563EB",
			"success": "#16A34A", "danger": "#EF4444", "warning": "#F59E0B",
			"border": "#E5E7EB", "ring": "#60A5FA",
		},
	},
	{
		ID:    "vela-ocean",
		Label: "Vela Ocean",
		Vars: map[string]string{
			"bg": "#F5F9FF", "surface": "#FFFFFF", "text": "#0B1220", "muted": "#6A7A90",
			"accent": "#3B82F6", "accentContrast": "#0B1220", "accentAlt": "#22D3EE",
			"success": "#16A34A", "danger": "#EF4444", "warning": "#F59E0B",
			"border": "#E5E7EB", "ring": "#60A5FA",
		},
	},
	{
		ID:    "vela-sand",
		Label: "Vela Sand",
		Vars: map[string]string{
			"bg": "#FFFCF7", "surface": "#FFFFFF", "text": "#1C1917", "muted": "#A8A29E",
			"accent": "#10B981", "accentContrast": "#072014", "accentAlt": "#F59E0B",
			"success": "#16A34A", "danger": "#DC2626", "warning": "#D97706",
			"border": "#E7E5E4", "ring": "#60A5FA",
		},
	},
	{
		ID:    "vela-noir",
		Label: "Vela Noir",
		Vars: map[string]string{
			"bg": "#0B1020", "surface": "#111827", "text": "#E5E7EB", "muted": "#9CA3AF",
			"accent": "#4ADE80", "accentContrast": "#0B1F0F", "accentAlt": "#60A5FA",
			"success": "#22C55E", "danger": "#F87171", "warning": "#F59E0B",
			"border": "#1F2937", "ring": "#60A5FA",
		},
	},
	{
		ID:    "vela-midnight",
		Label: "Vela Midnight",
		Vars: map[string]string{
			"bg": "#000000", "surface": "#0B0F14", "text": "#E6EAF0", "muted": "#8A93A5",
			"accent": "#38D39F", "accentContrast": "#071510", "accentAlt": "#7AA2FF",
			"success": "#22C55E", "danger": "#F87171", "warning": "#F59E0B",
			"border": "#141820", "ring": "#7AA2FF",
		},
	},
	{
		ID:    "vela-slate",
		Label: "Vela Slate",
		Vars: map[string]string{
			"bg": "#F1F5F9", "surface": "#FFFFFF", "text": "#0F172A", "muted": "#64748B",
			"accent": "#22C55E", "accentContrast": "#0B1F0F", "accentAlt": "#0EA5E9",
			"success": "#16A34A", "danger": "#EF4444", "warning": "#F59E0B",
			"border": "#E2E8F0", "ring": "#60A5FA",
		},
	},
	{
		ID:    "vela-blossom",
		Label: "Vela Blossom",
		Vars: map[string]string{
			"bg": "#FAFBFF", "surface": "#FFFFFF", "text": "#111827", "muted": "#9AA3B2",
			"accent": "#4ADE80", "accentContrast": "#0B1F0F", "accentAlt": "#A78BFA",
			"success": "#16A34A", "danger": "#EF4444", "warning": "#F59E0B",
			"border": "#E5E7EB", "ring": "#60A5FA",
		},
	},
}

// ThemeByID looks a theme up by its identifier.
func ThemeByID(id string) (Theme, bool) {
	for _, t := range Themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}
