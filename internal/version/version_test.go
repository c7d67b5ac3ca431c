package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime })

	assert.Equal(t, "laserctl dev (unknown, built unknown)", String("laserctl"))

	Version, GitSHA, BuildTime = "v0.3.0", "0123456789abcdef", "2026-10-01T12:00:00Z"
	assert.Equal(t, "laserctl v0.3.0 (0123456, built 2026-10-01T12:00:00Z)", String("laserctl"))
}
