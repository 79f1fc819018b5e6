package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_FlagDefaults(t *testing.T) {
	root := newRootCmd()

	flags := root.PersistentFlags()

	cap, err := flags.GetUint64("capacity")
	require.NoError(t, err)
	require.Equal(t, uint64(1024), cap)

	producersFlag, err := flags.GetInt("producers")
	require.NoError(t, err)
	require.Equal(t, 4, producersFlag)

	consumersFlag, err := flags.GetInt("consumers")
	require.NoError(t, err)
	require.Equal(t, 4, consumersFlag)

	dur, err := flags.GetDuration("duration")
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, dur)

	stripesFlag, err := flags.GetUint64("stripes")
	require.NoError(t, err)
	require.Equal(t, uint64(1), stripesFlag)

	kFlag, err := flags.GetUint64("k")
	require.NoError(t, err)
	require.Equal(t, uint64(16), kFlag)
}

func TestNewRootCmd_FlagsOverrideDefaults(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{
		"--capacity=64",
		"--producers=2",
		"--consumers=3",
		"--stripes=5",
		"--k=7",
		"--duration=10ms",
	}))

	flags := root.PersistentFlags()

	cap, err := flags.GetUint64("capacity")
	require.NoError(t, err)
	require.Equal(t, uint64(64), cap)

	stripesFlag, err := flags.GetUint64("stripes")
	require.NoError(t, err)
	require.Equal(t, uint64(5), stripesFlag)

	kFlag, err := flags.GetUint64("k")
	require.NoError(t, err)
	require.Equal(t, uint64(7), kFlag)
}
