package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	defer func(v, b, c string) { Version, BuildTime, GitCommit = v, b, c }(Version, BuildTime, GitCommit)

	Version, BuildTime, GitCommit = "1.2.3", "unknown", "unknown"
	assert.Equal(t, "1.2.3", String())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "1.2.3 (0123456)", String())

	BuildTime = "2024-05-01T10:00:00Z"
	assert.Equal(t, "1.2.3 (0123456) built 2024-05-01T10:00:00Z", String())
}
