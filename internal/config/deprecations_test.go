package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknownKeyWarnings(t *testing.T) {
	content := `
[camera]
zoom = 4
altitude = 1200

[basemap]
style = "dark-gray"
`
	warnings := UnknownKeyWarnings(content)
	assert.NotEmpty(t, warnings)
	joined := ""
	for _, w := range warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, `"camera.altitude"`)
	assert.Contains(t, joined, `"basemap`)
	assert.NotContains(t, joined, `"camera.zoom"`)
}

func TestUnknownKeyWarnings_DefaultsAreClean(t *testing.T) {
	data, err := configFS.ReadFile("default/config.toml")
	assert.NoError(t, err)
	assert.Empty(t, UnknownKeyWarnings(string(data)))
}
