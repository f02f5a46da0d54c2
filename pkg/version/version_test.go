package version_test

import (
	"testing"

	"github.com/itohio/aquanode/pkg/version"
	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "aquanode/dev", version.UserAgent())
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "dev (none)", version.VersionString())
}
