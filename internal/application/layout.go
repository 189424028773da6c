package application

import (
	"strings"

	"subete-shopify-layer/internal/domain"
)

const layoutBodyClosing = "</body>"

// InjectRenderCall inserts the widget render directive right before the
// first closing body tag. It reports false when the layout already renders
// the widget or has no body tag, leaving the content untouched.
func InjectRenderCall(layout string) (string, bool) {
	if strings.Contains(layout, domain.WidgetRenderCall) {
		return layout, false
	}
	if !strings.Contains(layout, layoutBodyClosing) {
		return layout, false
	}
	patched := strings.Replace(layout, layoutBodyClosing, "  "+domain.WidgetRenderCall+"\n"+layoutBodyClosing, 1)
	return patched, true
}
