package buildinfo

// Set at build time via -ldflags:
//
//	-X 'github.com/SergIvo/dvmn-fish-shop-bot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/SergIvo/dvmn-fish-shop-bot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/SergIvo/dvmn-fish-shop-bot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

const product = "fishshop-bot"

// UserAgent identifies the bot in outbound HTTP requests, e.g. "fishshop-bot/v0.3.0 (abcdef0)".
func UserAgent() string {
	return product + "/" + Version + " (" + Commit + ")"
}
