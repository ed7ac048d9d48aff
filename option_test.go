package fragment

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/gregrot/mind-fragment-sub002/assert"
)

func TestOptionFunctionSignatures(t *testing.T) {
	// Keeps the public option surface stable. A compile error here means a
	// public facing function signature changed.
	WithConfig(defaultWorldConfig())
	WithName("arena")
	WithLogger(zerolog.Nop())
	WithPrettyLog()
}

func TestOptionsApplyToWorld(t *testing.T) {
	w := &World{cfg: defaultWorldConfig()}

	WithName("arena")(w)
	assert.Equal(t, "arena", w.cfg.WorldName)

	WithPrettyLog()(w)
	assert.True(t, w.cfg.LogPretty)

	assert.False(t, w.customLogger)
	WithLogger(zerolog.Nop())(w)
	assert.True(t, w.customLogger)

	replacement := WorldConfig{WorldName: "dungeon", LogLevel: "warn"}
	WithConfig(replacement)(w)
	assert.Equal(t, replacement, w.cfg)
}
