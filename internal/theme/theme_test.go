package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesStartWithDefault(t *testing.T) {
	names := Names()
	assert.Equal(t, DefaultName, names[0])
	assert.ElementsMatch(t, []string{"default", "forest", "mono", "ocean", "sunset"}, names)
}

func TestNextWrapsAround(t *testing.T) {
	names := Names()
	assert.Equal(t, names[1], Next(DefaultName))
	assert.Equal(t, DefaultName, Next(names[len(names)-1]))
	assert.Equal(t, DefaultName, Next("missing"))
}

func TestApplyFallsBackToDefault(t *testing.T) {
	t.Cleanup(func() { Apply(DefaultName) })

	assert.Equal(t, "ocean", Apply("ocean"))
	assert.Equal(t, "ocean", Current.Name)

	assert.Equal(t, DefaultName, Apply("neon"))
	assert.Equal(t, DefaultName, Current.Name)
	assert.False(t, Exists("neon"))
}
