package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 5.0, c.GoTo.Zoom)
	assert.Equal(t, "#ff635e", c.Highlight.Color)
	assert.Equal(t, "cities", c.Layer.Title)
	assert.Equal(t, "name", c.Layer.LabelField)
	assert.Equal(t, 4, c.Layer.Modulo)
	require.Len(t, c.Layer.Values, 4)
	assert.Equal(t, "Purple", c.Layer.Values[0].Label)
	assert.Equal(t, "Green", c.Layer.Values[3].Label)
	assert.Empty(t, c.Data.Files)
	assert.Equal(t, []string{"n", "tab"}, c.UI.Keys.Next)
}

func TestLoad_GoToZoom(t *testing.T) {
	content := `
[goto]
zoom = 7.0
`
	config := Default()
	err := config.Load(content)
	assert.NoError(t, err)
	assert.Equal(t, 7.0, config.GoTo.Zoom)
	assert.Equal(t, 800*time.Millisecond, GetGoToDuration(config))
}

func TestLoad_FlashMessageSeconds(t *testing.T) {
	content := `
[ui]
flash_message_seconds = 10
`
	config := &Config{}
	err := config.Load(content)
	assert.NoError(t, err)
	assert.Equal(t, 10, config.UI.FlashMessageSeconds)
	assert.Equal(t, 10*time.Second, GetExpiringFlashMessageTimeout(config))
}

func TestLoad_KeysReplaceDefaults(t *testing.T) {
	content := `
[ui.keys]
next = ["right"]
`
	config := Default()
	err := config.Load(content)
	assert.NoError(t, err)
	assert.Equal(t, []string{"right"}, config.UI.Keys.Next)
	assert.Equal(t, []string{"p", "shift+tab"}, config.UI.Keys.Prev)
}

func TestLoad_InvalidHighlightColor(t *testing.T) {
	content := `
[highlight]
color = "salmon"
`
	config := Default()
	err := config.Load(content)
	assert.ErrorContains(t, err, "highlight.color")
}

func TestLoad_InvalidOpacityAndZoom(t *testing.T) {
	content := `
[highlight]
opacity = 2.0

[goto]
zoom = -1.0
`
	config := Default()
	err := config.Load(content)
	require.Error(t, err)
	assert.ErrorContains(t, err, "highlight.opacity")
	assert.ErrorContains(t, err, "goto.zoom")
}

func TestLoad_Malformed(t *testing.T) {
	config := Default()
	assert.Error(t, config.Load(`[goto`))
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		got      func(*Config) time.Duration
		expected time.Duration
	}{
		{"auto deselect disabled", Config{}, GetAutoDeselectTimeout, 0},
		{"auto deselect", Config{Selection: SelectionConfig{AutoDeselectSeconds: 3}}, GetAutoDeselectTimeout, 3 * time.Second},
		{"tour interval fallback", Config{}, GetTourInterval, 5 * time.Second},
		{"tour interval", Config{Tour: TourConfig{IntervalSeconds: 2}}, GetTourInterval, 2 * time.Second},
		{"flash disabled", Config{UI: UIConfig{FlashMessageSeconds: -1}}, GetExpiringFlashMessageTimeout, 0},
		{"interaction idle fallback", Config{}, GetInteractionIdle, 300 * time.Millisecond},
		{"goto negative duration", Config{GoTo: GoToConfig{DurationMs: -5}}, GetGoToDuration, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.got(&tc.config))
		})
	}
}
