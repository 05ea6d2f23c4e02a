// Package compileinfo reports how the running binary was built, so that
// deconvolution output can be traced back to a revision.
package compileinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

type Info struct {
	Path         string
	Version      string
	GoVersion    string
	Revision     string
	RevisionTime string
	Dirty        bool
}

func (i Info) String() string {
	if i.Path == "" {
		return "Build information is unavailable for this binary."
	}

	dirty := ""
	if i.Dirty {
		dirty = " (uncommitted changes)"
	}

	revision := i.Revision
	if revision == "" {
		revision = "unknown"
	}

	return fmt.Sprintf("%s %s built with %s from revision %s%s at %s", i.Path, i.Version, i.GoVersion, revision, dirty, i.RevisionTime)
}

// Get reads the build information embedded by the Go toolchain.
func Get() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}
	}

	return fromBuildInfo(bi)
}

func fromBuildInfo(bi *debug.BuildInfo) Info {
	out := Info{
		Path:      bi.Path,
		Version:   bi.Main.Version,
		GoVersion: bi.GoVersion,
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.time":
			out.RevisionTime = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}
