package application

import (
	"strings"
	"testing"

	"subete-shopify-layer/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestInjectRenderCall(t *testing.T) {
	tests := []struct {
		name    string
		layout  string
		want    string
		changed bool
	}{
		{
			name:    "inserts before closing body",
			layout:  "<html><body>\n<main></main>\n</body></html>",
			want:    "<html><body>\n<main></main>\n  {% render 'subete_widget' %}\n</body></html>",
			changed: true,
		},
		{
			name:    "only the first closing body",
			layout:  "<body></body><!-- </body> -->",
			want:    "<body>  {% render 'subete_widget' %}\n</body><!-- </body> -->",
			changed: true,
		},
		{
			name:    "already rendered",
			layout:  "<body>{% render 'subete_widget' %}</body>",
			want:    "<body>{% render 'subete_widget' %}</body>",
			changed: false,
		},
		{
			name:    "no body tag",
			layout:  "{{ content_for_layout }}",
			want:    "{{ content_for_layout }}",
			changed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := InjectRenderCall(tt.layout)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestInjectRenderCall_Idempotent(t *testing.T) {
	first, changed := InjectRenderCall("<body>\n</body>")
	assert.True(t, changed)

	second, changed := InjectRenderCall(first)
	assert.False(t, changed)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, strings.Count(second, domain.WidgetRenderCall))
}
