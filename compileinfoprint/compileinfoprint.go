// Package compileinfoprint is imported for the side effect of writing the
// build information to stderr when a command starts.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/deconv/compileinfo"
)

func init() {
	compileinfo.Fprint(os.Stderr)
}
