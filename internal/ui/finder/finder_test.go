package finder

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/mapview/internal/scene"
)

var cities = []*scene.Entity{
	{ID: 1, Name: "Bern", Country: "Switzerland"},
	{ID: 2, Name: "Vienna", Country: "Austria"},
	{ID: 3, Name: "Valletta", Country: "Malta"},
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyPressMsg{Text: string(r), Code: r})
	}
}

func TestNew_ListsEverything(t *testing.T) {
	m := New(cities)

	assert.Len(t, m.matches, 3)
	assert.Equal(t, cities[0], m.Selected())
}

func TestModel_Filter(t *testing.T) {
	m := New(cities)

	typeText(m, "vi")

	require.NotEmpty(t, m.matches)
	assert.Equal(t, "Vienna", m.Selected().Name)
	for _, match := range m.matches {
		assert.NotEqual(t, "Bern Switzerland", match.Str)
	}
}

func TestModel_FilterMatchesCountry(t *testing.T) {
	m := New(cities)

	typeText(m, "malta")

	require.Len(t, m.matches, 1)
	assert.Equal(t, scene.EntityID(3), m.Selected().ID)
}

func TestModel_NoMatches(t *testing.T) {
	m := New(cities)

	typeText(m, "zzz")

	assert.Nil(t, m.Selected())
	assert.Contains(t, m.View(60), "no matches")
	assert.Equal(t, NotFoundMsg{Query: "zzz"}, m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})())
}

func TestModel_NavigateWraps(t *testing.T) {
	m := New(cities)

	m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, "Valletta", m.Selected().Name)

	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, "Bern", m.Selected().Name)
}

func TestModel_Enter(t *testing.T) {
	m := New(cities)
	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, SelectedMsg{Entity: cities[1]}, cmd())
}

func TestModel_Escape(t *testing.T) {
	m := New(cities)

	cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})

	require.NotNil(t, cmd)
	assert.Equal(t, CancelledMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	m := New(cities)

	view := m.View(60)

	assert.Contains(t, view, "Find (3 of 3)")
	assert.Contains(t, view, "Bern")
	assert.Contains(t, view, "Valletta")
}
