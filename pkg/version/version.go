package version

import (
	"strings"

	goVersion "github.com/hashicorp/go-version"
)

// EmptyValue is the value we use when running a version that wasn't compiled
// by `make`. This is helpful for telling when we're running in a unit test.
const EmptyValue = "set-by-make"

// Version is the latest tag on git for releases. On non-release commits, it may
// include additional information such as the most recent commit hash.
var Version = EmptyValue

// Compatible returns whether a CLI at `local` can deploy to a server running
// `remote`. Only release versions of the form X.Y.Z are compared, and they
// must agree on the major and minor components. Internal builds are always
// considered compatible.
func Compatible(remote, local string) bool {
	remoteVersion, err := goVersion.NewVersion(remote)
	if err != nil || !isRelease(remoteVersion) {
		return true
	}

	localVersion, err := goVersion.NewVersion(local)
	if err != nil || !isRelease(localVersion) {
		return true
	}

	remoteSegments := remoteVersion.Segments()
	localSegments := localVersion.Segments()
	return remoteSegments[0] == localSegments[0] && remoteSegments[1] == localSegments[1]
}

// isRelease checks the original string because go-version pads short
// versions such as "1.2" with zeros.
func isRelease(v *goVersion.Version) bool {
	return v.Prerelease() == "" && v.Metadata() == "" &&
		strings.Count(v.Original(), ".") == 2
}
