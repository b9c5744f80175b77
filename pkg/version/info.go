package version

import "fmt"

// Build-time injected information.
var (
	Version    = "development"
	CommitHash string
	BuildTime  string
	OS         string
	Arch       string
)

// GetVersion returns the version in a human consumable way. It is used for the
// version subcommand and stamped into the User-Agent of every request.
func GetVersion() string {
	return makeVersionString(Version, CommitHash, OS, Arch)
}

func makeVersionString(version, commitHash, os, arch string) string {
	versionString := version
	if commitHash != "" {
		versionString = fmt.Sprintf("%s(%s)", versionString, commitHash)
	}
	if os != "" && arch != "" {
		versionString = fmt.Sprintf("%s/%s-%s", versionString, os, arch)
	} else if os != "" {
		versionString = fmt.Sprintf("%s/%s", versionString, os)
	}
	return versionString
}
