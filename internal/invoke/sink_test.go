package invoke_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrest/arcrest/internal/invoke"
)

func TestSinkGrowsMonotonically(t *testing.T) {
	assert := assert.New(t)

	sink := invoke.NewSink()
	inv := newActiveInvocation(t, sink)

	inv.Capturef("", "one")
	first := sink.Len()
	inv.Capturef("", "two")

	assert.Greater(sink.Len(), first)
	assert.Equal("prog: oneprog: two", sink.String())
}

func TestSinkResetsBetweenInvocations(t *testing.T) {
	assert := assert.New(t)

	sink := invoke.NewSink()
	inv := newActiveInvocation(t, sink)

	inv.Capturef("", "stale")
	require.NoError(t, inv.Complete())
	_, err := inv.End()
	require.NoError(t, err)

	require.NoError(t, inv.Begin())
	assert.Equal(0, sink.Len(), "begin must hand out a fresh buffer")
}
