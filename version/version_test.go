package version

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestGetHumanVersion(t *testing.T) {
	defer func(v, c string) { Version, GitCommit = v, c }(Version, GitCommit)

	Version, GitCommit = "1.2.0", "abc1234"
	assert.Equal(t, GetHumanVersion(), "v1.2.0-abc1234")

	Version = "v1.3.0"
	assert.Equal(t, GetHumanVersion(), "v1.3.0-abc1234")
}
