package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/flowsniff/internal/core/coretest"
)

func TestCompileBpf(t *testing.T) {
	insns, err := CompileBpf("udp port 53", 65535)
	require.NoError(t, err)
	assert.NotEmpty(t, insns)
}

func TestCompileBpfInvalid(t *testing.T) {
	_, err := CompileBpf("not a ( filter", 65535)
	assert.Error(t, err)
}

func TestFilterMatches(t *testing.T) {
	f, err := NewFilter("udp", 65535)
	require.NoError(t, err)

	udp := coretest.UDP("10.0.0.1", 5353, "10.0.0.2", 53)
	tcp := coretest.TCP("10.0.0.1", 443, "10.0.0.2", 51000)

	assert.True(t, f.Matches(udp))
	assert.False(t, f.Matches(tcp))
	assert.False(t, f.Matches(coretest.ARP()))
}
