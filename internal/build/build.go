// Package build contains build specific information.
package build

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
)

// Name is the name of the binary.
const Name = "pushcart-deploy"

// gitRevision is injected at build time.
var gitRevision string

func init() {
	var (
		revision string
		dirty    bool
	)

	info, _ := debug.ReadBuildInfo()
	if info == nil {
		return
	}

	for _, i := range info.Settings {
		switch {
		case i.Key == "vcs.revision":
			revision = i.Value
		case i.Key == "vcs.modified":
			dirty, _ = strconv.ParseBool(i.Value)
		}
	}

	gitRevision = revision
	if dirty {
		gitRevision += "-dirty"
	}
}

// GetGitRevision retrieves the revision of the current build. If the build contains uncommitted
// changes the revision will be suffixed with "-dirty".
func GetGitRevision() string {
	return gitRevision
}

// UserAgent is the User-Agent sent with every workspace API request.
func UserAgent() string {
	revision := GetGitRevision()
	if revision == "" {
		revision = "unknown"
	}
	return fmt.Sprintf("%s/%s (%s; %s)", Name, revision, runtime.GOOS, runtime.GOARCH)
}
