package disks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpeckham/sfs/disks"
)

func TestGetKnownPresetSucceeds(t *testing.T) {
	preset, err := disks.Get("standard")
	require.NoError(t, err)
	assert.EqualValues(t, 512, preset.BlockSize)
	assert.EqualValues(t, 4096, preset.BatN)
}

func TestGetUnknownPresetFails(t *testing.T) {
	_, err := disks.Get("does-not-exist")
	assert.Error(t, err)
}

func TestLayoutFromPresetIsValid(t *testing.T) {
	for _, name := range disks.Names() {
		preset, err := disks.Get(name)
		require.NoError(t, err)
		require.NoError(t, preset.Layout().Validate(), "preset %q produced an invalid layout", name)
	}
}

func TestNamesIncludesAllPresets(t *testing.T) {
	names := disks.Names()
	assert.Contains(t, names, "standard")
	assert.Contains(t, names, "tiny")
}
