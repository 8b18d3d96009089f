// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package protocolspec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ordpub/envelope/protocolspec"
)

func TestResolvePinned(t *testing.T) {
	resolver := protocolspec.Default{}

	spec, err := resolver.Resolve("ord-v1")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", spec["version"])
	require.Equal(t, true, spec["tracking"])

	spec, err = resolver.Resolve("pub-v1")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", spec["version"])

	spec, err = resolver.Resolve("pub")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", spec["version"])
}

func TestResolveHighestSemver(t *testing.T) {
	resolver := protocolspec.Default{}

	spec, err := resolver.Resolve("demo")
	require.NoError(t, err)
	require.Equal(t, "1.2.0", spec["version"])
	require.Equal(t, true, spec["tracking"])
}

func TestResolveUnknownProtocolIsEmptyObject(t *testing.T) {
	resolver := protocolspec.Default{}

	spec, err := resolver.Resolve("no-such-protocol")
	require.NoError(t, err)
	require.Empty(t, spec)
}
