package backends

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func TestRegistry_UnknownScheme(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.New("bogus", interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrUnknownScheme)

	_, err = reg.New("", interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrUnknownScheme)
}

func TestRegistry_SchemeMatchingIsCaseSensitive(t *testing.T) {
	_, err := New("MEMORY", interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrUnknownScheme)

	_, err = New("Memory", interfaces.Config{}, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrUnknownScheme)
}

func TestRegistry_RegisterAndConstruct(t *testing.T) {
	reg := NewRegistry()
	reg.Register("mem", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewMemoryBackend(cfg, log)
	})

	backend, err := reg.New("mem", interfaces.Config{"root": "./tmp"}, testLogger())
	require.NoError(t, err)
	defer backend.Close(context.Background())

	assert.Equal(t, "memory", backend.Name())
}

func TestRegistry_ConfigNotRetained(t *testing.T) {
	reg := NewRegistry()

	var seen interfaces.Config
	reg.Register("probe", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		seen = cfg
		return NewMemoryBackend(cfg, log)
	})

	caller := interfaces.Config{"root": "./tmp"}
	backend, err := reg.New("probe", caller, testLogger())
	require.NoError(t, err)
	defer backend.Close(context.Background())

	// The constructor sees the values but not the caller's map.
	assert.Equal(t, "./tmp", seen["root"])
	seen["root"] = "mutated"
	assert.Equal(t, "./tmp", caller["root"])
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	ctor := func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewMemoryBackend(cfg, log)
	}

	reg.Register("mem", ctor)
	assert.Panics(t, func() { reg.Register("mem", ctor) })
	assert.Panics(t, func() { reg.Register("", ctor) })
	assert.Panics(t, func() { reg.Register("other", nil) })
}

func TestRegistry_Schemes(t *testing.T) {
	reg := NewRegistry()
	ctor := func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewMemoryBackend(cfg, log)
	}

	reg.Register("zeta", ctor)
	reg.Register("alpha", ctor)

	assert.Equal(t, []string{"alpha", "zeta"}, reg.Schemes())
}

func TestDefaultRegistry_KnownSchemes(t *testing.T) {
	schemes := Schemes()
	for _, want := range []string{"memory", "fs", "mirror", "s3", "http"} {
		assert.Contains(t, schemes, want)
	}
}
