package buildinfo

import "testing"

func TestUserAgent(t *testing.T) {
	prevVersion, prevCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = prevVersion, prevCommit })

	Version, Commit = "v1.0.0", "1a2b3c"
	if got := UserAgent(); got != "fishshop-bot/v1.0.0 (1a2b3c)" {
		t.Fatalf("UserAgent() = %q", got)
	}
}
