package domain

import "fmt"

// MainThemeRole is the role Shopify assigns to the published theme
const MainThemeRole = "main"

// Widget asset layout inside the merchant theme
const (
	WidgetSnippetKey = "snippets/subete_widget.liquid"
	ThemeLayoutKey   = "layout/theme.liquid"
	WidgetRenderCall = "{% render 'subete_widget' %}"
)

// Theme is a storefront theme of a shop
type Theme struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsMain reports whether the theme is the live storefront theme
func (t Theme) IsMain() bool {
	return t.Role == MainThemeRole
}

// ThemeAsset is a single file of a theme, addressed by key
type ThemeAsset struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WidgetSnippet returns the snippet asset that loads the hosted widget script
func WidgetSnippet(widgetURL string) ThemeAsset {
	return ThemeAsset{
		Key:   WidgetSnippetKey,
		Value: fmt.Sprintf(`<script src="%s/embed.js" defer></script>`, widgetURL),
	}
}

// FindMainTheme returns the theme flagged as main, if any
func FindMainTheme(themes []Theme) (Theme, bool) {
	for _, t := range themes {
		if t.IsMain() {
			return t, true
		}
	}
	return Theme{}, false
}
