// Package version carries the build identity, set with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Info is the build identity reported by the /version endpoint.
type Info struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OpenCV    bool   `json:"opencv"`
}

// Get returns the build identity. opencv reports whether the image
// processing backend was compiled in.
func Get(opencv bool) Info {
	return Info{
		Version:   Version,
		GitSHA:    GitSHA,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OpenCV:    opencv,
	}
}

func (i Info) String() string {
	backend := "pure-go"
	if i.OpenCV {
		backend = "opencv"
	}
	return fmt.Sprintf("%s (%s, built %s, %s, %s)", i.Version, i.GitSHA, i.BuildTime, i.GoVersion, backend)
}
