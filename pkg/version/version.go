package version

// Set at build time via -ldflags "-X github.com/itohio/aquanode/pkg/version.Version=..."
var (
	// BinaryName is the name of the station binary.
	BinaryName = "aquanode"
	// Version is the release version.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
)

// UserAgent returns the User-Agent sent with uplink requests.
func UserAgent() string {
	return BinaryName + "/" + Version
}

// VersionString returns the version with the commit it was built from.
func VersionString() string {
	return Version + " (" + Commit + ")"
}
