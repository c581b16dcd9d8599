package invoke_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrest/arcrest/internal/invoke"
)

func newActiveInvocation(t *testing.T, sink *invoke.Sink) *invoke.Invocation {
	t.Helper()

	inv, err := invoke.New(invoke.Config{ProgName: "prog", Sink: sink})
	require.NoError(t, err)
	require.NoError(t, inv.Begin())

	return inv
}

func TestCleanupsRunInReverseOrderExactlyOnce(t *testing.T) {
	assert := assert.New(t)

	inv := newActiveInvocation(t, nil)

	got := []string{}
	for _, name := range []string{"c1", "c2", "c3"} {
		name := name
		require.NoError(t, inv.OnExit(func(code int) { got = append(got, name) }))
	}

	err := inv.Escape(3)

	var exitErr *invoke.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(3, exitErr.Code)
	assert.Equal([]string{"c3", "c2", "c1"}, got)
	assert.Equal(0, inv.PendingCleanups())
}

func TestZeroCodeEscapeDrainsWithoutEscaping(t *testing.T) {
	assert := assert.New(t)

	inv := newActiveInvocation(t, nil)

	ran := 0
	require.NoError(t, inv.OnExit(func(code int) {
		ran++
		assert.Equal(0, code)
	}))

	err := inv.Escape(0)

	assert.NoError(err)
	assert.Equal(1, ran)
	assert.Equal(0, inv.PendingCleanups())

	// Invocation is still active: new cleanups can be registered and the
	// drained ones never run again.
	require.NoError(t, inv.OnExit(func(code int) {}))
	require.NoError(t, inv.Complete())
	assert.Equal(1, ran)
}

func TestCleanupCapacityOverflowEscapes(t *testing.T) {
	assert := assert.New(t)

	sink := invoke.NewSink()
	inv, err := invoke.New(invoke.Config{ProgName: "prog", Sink: sink, MaxCleanups: 3})
	require.NoError(t, err)
	require.NoError(t, inv.Begin())

	drained := 0
	for i := 0; i < 3; i++ {
		require.NoError(t, inv.OnExit(func(code int) { drained++ }))
	}

	err = inv.OnExit(func(code int) {})

	var exitErr *invoke.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(1, exitErr.Code)
	assert.Equal(3, drained, "registered cleanups must still drain on overflow")
	assert.Contains(sink.String(), "out of on-exit cleanup slots")
}

func TestCaptureMessageFormatting(t *testing.T) {
	assert := assert.New(t)

	sink := invoke.NewSink()
	inv := newActiveInvocation(t, sink)

	inv.Capturef("", "a")
	inv.Capturef("mod", "b")
	inv.Capturef("", "c")

	assert.Equal("prog: aprog: [mod] bprog: c", sink.String())
}

func TestCaptureWithoutSinkIsANoOp(t *testing.T) {
	inv := newActiveInvocation(t, nil)

	inv.Capturef("", "dropped %d", 1)
	inv.Capturef("mod", "dropped too")

	require.NoError(t, inv.Complete())
	diags, err := inv.End()
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestSuccessiveInvocationsCarryNoResidue(t *testing.T) {
	assert := assert.New(t)

	sink := invoke.NewSink()
	inv := newActiveInvocation(t, sink)

	ranAgain := false
	require.NoError(t, inv.OnExit(func(code int) { ranAgain = true }))
	inv.Capturef("", "first\n")

	err := inv.Escape(1)
	require.Error(t, err)
	diags, err := inv.End()
	require.NoError(t, err)
	assert.Equal("prog: first\n", diags)

	// Second invocation on the same instance.
	ranAgain = false
	require.NoError(t, inv.Begin())
	inv.Capturef("", "second\n")
	require.NoError(t, inv.Complete())
	diags, err = inv.End()
	require.NoError(t, err)

	assert.Equal("prog: second\n", diags)
	assert.False(ranAgain, "first invocation cleanups must not leak into the second")
}

func TestLifecycleMisuse(t *testing.T) {
	tests := map[string]struct {
		run func(inv *invoke.Invocation) error
	}{
		"Beginning an already active invocation should fail.": {
			run: func(inv *invoke.Invocation) error { return inv.Begin() },
		},
		"Ending an active invocation without completing should fail.": {
			run: func(inv *invoke.Invocation) error {
				_, err := inv.End()
				return err
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			inv := newActiveInvocation(t, nil)
			assert.Error(t, test.run(inv))
		})
	}
}

func TestEscapeOutsideActiveInvocationFails(t *testing.T) {
	inv, err := invoke.New(invoke.Config{ProgName: "prog"})
	require.NoError(t, err)

	err = inv.Escape(1)

	var exitErr *invoke.ExitError
	assert.Error(t, err)
	assert.False(t, errors.As(err, &exitErr))
}

func TestFatalfCapturesAndEscapes(t *testing.T) {
	assert := assert.New(t)

	sink := invoke.NewSink()
	inv := newActiveInvocation(t, sink)

	err := inv.Fatalf("archiver", "boom: %s\n", "reason")

	var exitErr *invoke.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(1, exitErr.Code)
	assert.Equal("prog: [archiver] boom: reason\n", sink.String())
}
