package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"release with commit", Info{Version: "v1.2.0", GitCommit: "abcdef0123"}, "v1.2.0 (abcdef0)"},
		{"dev with commit", Info{Version: "dev", GitCommit: "abcdef0123"}, "dev-abcdef0"},
		{"unknown commit", Info{Version: "v1.2.0", GitCommit: "unknown"}, "v1.2.0"},
		{"short commit", Info{Version: "v1.2.0", GitCommit: "abc"}, "v1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Short())
		})
	}
}

func TestString(t *testing.T) {
	info := Info{
		Version:   "v1.2.0",
		GitCommit: "abcdef0123",
		BuildTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
		Dirty:     true,
	}

	assert.Equal(t, "Version: v1.2.0\nCommit: abcdef0123 (dirty)\nBuilt: 2026-01-02T03:04:05Z\nGo: go1.24.4\nPlatform: linux/amd64", info.String())
	assert.Equal(t, "Version: dev\nGo: go1.24.4\nPlatform: linux/amd64",
		Info{Version: "dev", GitCommit: "unknown", GoVersion: "go1.24.4", Platform: "linux/amd64"}.String())
}

func TestIsRelease(t *testing.T) {
	assert.True(t, Info{Version: "v1.0.0"}.IsRelease())
	assert.False(t, Info{Version: "dev"}.IsRelease())
	assert.False(t, Info{Version: "dev-abc1234"}.IsRelease())
	assert.False(t, Info{}.IsRelease())
}

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), parseBuildTime("2026-01-02T03:04:05Z"))
	assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), parseBuildTime("2026-01-02 15:04:05"))
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
