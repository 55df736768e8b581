package basemodule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineSymbolAndStaticInit(t *testing.T) {
	r := NewRegistry()
	r.DefineSymbol("anim_solid", SymInit, func() {})
	r.DefineSymbol("anim_solid", SymIterate, func(dt float64) {})

	m, err := r.Init("anim_solid")
	require.NoError(t, err)
	assert.True(t, m.HasSymbol(SymInit))
	assert.True(t, m.HasSymbol(SymIterate))
	assert.False(t, m.HasSymbol(SymMix))
	assert.Equal(t, 1, m.RefCount())
}

func TestInitIsIdempotentAndRefcounts(t *testing.T) {
	r := NewRegistry()
	r.DefineSymbol("anim_solid", SymIterate, func(dt float64) {})

	m1, err := r.Init("anim_solid")
	require.NoError(t, err)
	m2, err := r.Init("anim_solid")
	require.NoError(t, err)

	assert.Same(t, m1, m2)
	assert.Equal(t, 2, m1.RefCount())
}

func TestUnknownModuleErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Init("anim_nonexistent")
	assert.Error(t, err)
}

type fakeLoader struct {
	symbols map[string]map[string]any
	loaded  []string
	loadErr error
}

func (f *fakeLoader) Load(name string) (map[string]any, func() error, bool, error) {
	if f.loadErr != nil {
		return nil, nil, false, f.loadErr
	}
	syms, ok := f.symbols[name]
	if !ok {
		return nil, nil, false, nil
	}
	f.loaded = append(f.loaded, name)
	unloaded := false
	return syms, func() error {
		unloaded = true
		_ = unloaded
		return nil
	}, true, nil
}

func TestDynamicBackendConsultedAfterStaticMiss(t *testing.T) {
	r := NewRegistry()
	loader := &fakeLoader{symbols: map[string]map[string]any{
		"egress_upsilon": {SymFlush: func() {}},
	}}
	r.AddLoader(loader)

	m, err := r.Init("egress_upsilon")
	require.NoError(t, err)
	assert.True(t, m.HasSymbol(SymFlush))
	assert.Equal(t, []string{"egress_upsilon"}, loader.loaded)
}

func TestDynamicLoaderErrorPropagates(t *testing.T) {
	r := NewRegistry()
	r.AddLoader(&fakeLoader{loadErr: errors.New("dlopen failed")})

	_, err := r.Init("egress_upsilon")
	assert.Error(t, err)
}

func TestDropUnloadsAtZeroRefcount(t *testing.T) {
	r := NewRegistry()
	unloadCalls := 0
	loader := &fakeLoaderFunc{
		fn: func(name string) (map[string]any, func() error, bool, error) {
			return map[string]any{SymFlush: func() {}}, func() error {
				unloadCalls++
				return nil
			}, true, nil
		},
	}
	r.AddLoader(loader)

	m1, err := r.Init("egress_upsilon")
	require.NoError(t, err)
	_, err = r.Init("egress_upsilon")
	require.NoError(t, err)
	assert.Equal(t, 2, m1.RefCount())

	require.NoError(t, r.Drop("egress_upsilon"))
	assert.Equal(t, 0, unloadCalls)
	_, stillLoaded := r.Get("egress_upsilon")
	assert.True(t, stillLoaded)

	require.NoError(t, r.Drop("egress_upsilon"))
	assert.Equal(t, 1, unloadCalls)
	_, stillLoaded = r.Get("egress_upsilon")
	assert.False(t, stillLoaded)
}

func TestDropUnknownModuleErrors(t *testing.T) {
	r := NewRegistry()
	err := r.Drop("never_loaded")
	assert.Error(t, err)
}

func TestGetDoesNotAffectRefcount(t *testing.T) {
	r := NewRegistry()
	r.DefineSymbol("anim_solid", SymIterate, func(dt float64) {})
	m, err := r.Init("anim_solid")
	require.NoError(t, err)

	got, ok := r.Get("anim_solid")
	require.True(t, ok)
	assert.Same(t, m, got)
	assert.Equal(t, 1, m.RefCount())
}

type fakeLoaderFunc struct {
	fn func(name string) (map[string]any, func() error, bool, error)
}

func (f *fakeLoaderFunc) Load(name string) (map[string]any, func() error, bool, error) {
	return f.fn(name)
}
