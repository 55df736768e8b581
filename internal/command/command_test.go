package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/module"
)

type fakeDispatcher struct {
	cmds map[string]*module.Command
}

func (f *fakeDispatcher) Lookup(verb string) (*module.Command, bool) {
	c, ok := f.cmds[verb]
	return c, ok
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{cmds: make(map[string]*module.Command)}
}

func (f *fakeDispatcher) register(name string, handler module.CommandFunc) {
	f.cmds[name] = &module.Command{Name: name, Handler: handler}
}

func TestRunDispatchesToRegisteredHandler(t *testing.T) {
	d := newFakeDispatcher()
	var gotArgs, gotSource string
	d.register("status", func(argstr, source string) error {
		gotArgs, gotSource = argstr, source
		return nil
	})
	b := New(d, nil)

	require.NoError(t, b.Run("status verbose", "console"))
	assert.Equal(t, "verbose", gotArgs)
	assert.Equal(t, "console", gotSource)
}

func TestRunIgnoresBlankAndCommentLines(t *testing.T) {
	d := newFakeDispatcher()
	called := false
	d.register("status", func(string, string) error { called = true; return nil })
	b := New(d, nil)

	require.NoError(t, b.Run("", "console"))
	require.NoError(t, b.Run("   ", "console"))
	require.NoError(t, b.Run("# a comment", "console"))
	assert.False(t, called)
}

func TestRunUnknownVerbRespondsError(t *testing.T) {
	d := newFakeDispatcher()
	b := New(d, nil)

	var level Level
	var text string
	b.PushSink(func(l Level, source, t string) { level, text = l, t })
	require.NoError(t, b.Run("bogus args", "console"))
	assert.Equal(t, LevelError, level)
	assert.Contains(t, text, "bogus")
}

func TestRunHandlerErrorRespondsWarn(t *testing.T) {
	d := newFakeDispatcher()
	d.register("fail", func(string, string) error { return assertErr{} })
	b := New(d, nil)

	var level Level
	b.PushSink(func(l Level, source, text string) { level = l })
	require.NoError(t, b.Run("fail", "console"))
	assert.Equal(t, LevelWarn, level)
}

type assertErr struct{}

func (assertErr) Error() string { return "handler failed" }

func TestRunSevereHandlerErrorRespondsError(t *testing.T) {
	d := newFakeDispatcher()
	d.register("display", func(string, string) error { return Severe(assertErr{}) })
	b := New(d, nil)

	var level Level
	var text string
	b.PushSink(func(l Level, source, t string) { level, text = l, t })
	require.NoError(t, b.Run("display nosuch on all", "console"))
	assert.Equal(t, LevelError, level)
	assert.Contains(t, text, "handler failed")
}

func TestPushPopSinkStack(t *testing.T) {
	d := newFakeDispatcher()
	b := New(d, nil)

	var outer, inner string
	b.PushSink(func(l Level, s, text string) { outer = text })
	b.PushSink(func(l Level, s, text string) { inner = text })
	b.Respond(LevelInfo, "x", "to inner")
	b.PopSink()
	b.Respond(LevelInfo, "x", "to outer")

	assert.Equal(t, "to inner", inner)
	assert.Equal(t, "to outer", outer)
}

func TestRespondFallsBackToDefaultLogWhenStackEmpty(t *testing.T) {
	d := newFakeDispatcher()
	var logged string
	b := New(d, func(level Level, source, text string) { logged = text })
	b.Respond(LevelInfo, "x", "hello")
	assert.Equal(t, "hello", logged)
}

func TestReplayFileSkipsCommentsAndBlankLines(t *testing.T) {
	d := newFakeDispatcher()
	var lines []string
	d.register("display", func(argstr, source string) error {
		lines = append(lines, argstr)
		return nil
	})
	b := New(d, nil)

	src := "# header\n\ndisplay rainbow on all\n"
	require.NoError(t, ReplayFile(b, "test.cfg", strings.NewReader(src)))
	assert.Equal(t, []string{"rainbow on all"}, lines)
}

func TestReplayFileJoinsContinuationLines(t *testing.T) {
	d := newFakeDispatcher()
	var got string
	d.register("display", func(argstr, source string) error { got = argstr; return nil })
	b := New(d, nil)

	src := "display rainbow \\\non all\n"
	require.NoError(t, ReplayFile(b, "test.cfg", strings.NewReader(src)))
	assert.Equal(t, "rainbow on all", got)
}

func TestReplayFileReportsFileAndLineOnError(t *testing.T) {
	d := newFakeDispatcher()
	d.register("bad", func(string, string) error { return assertErr{} })
	var gotSource string
	b := New(d, func(_ Level, source, _ string) { gotSource = source })

	src := "# comment\nbad\n"
	err := ReplayFile(b, "test.cfg", strings.NewReader(src))
	// Run() itself never errors for dispatch failures; ReplayFile only
	// surfaces scanner I/O errors, so this must succeed. The failure is
	// reported through the sink with the command's file and line as source.
	assert.NoError(t, err)
	assert.Equal(t, "configfile:test.cfg:2", gotSource)
}
