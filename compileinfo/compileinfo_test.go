package compileinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBuildInfo(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.18",
		Path:      "github.com/carbocation/deconv/cmd/deconvolve",
		Main:      debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2022-05-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	require.Equal(t, "abc123", info.Revision)
	require.True(t, info.Dirty)
	require.Equal(t, "github.com/carbocation/deconv/cmd/deconvolve (devel) built with go1.18 from revision abc123 (uncommitted changes) at 2022-05-01T00:00:00Z", info.String())
}

func TestEmptyInfo(t *testing.T) {
	require.Equal(t, "Build information is unavailable for this binary.", Info{}.String())
}
