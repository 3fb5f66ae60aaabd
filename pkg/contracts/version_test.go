package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, DataFormatVersion, info.DataFormat)
}

func TestGetFullVersionString(t *testing.T) {
	orig := GitCommit
	GitCommit = "abc1234"
	defer func() { GitCommit = orig }()

	s := GetFullVersionString("processor")
	assert.Contains(t, s, "processor v"+Version)
	assert.Contains(t, s, "commit: abc1234")
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}
