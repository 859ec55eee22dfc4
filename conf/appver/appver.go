package appver

import (
	_ "embed"
	"strings"
	"sync"
)

//go:generate sh -c "git describe --tags --always > version.txt"

var (
	//go:embed version.txt
	versionData string
)

type Version struct {
	// "0.4.2" or "0.4.2-12-ga3f19c7" for untagged builds
	Short       string
	GitDescribe string
	GitCommit   string
}

var Get = sync.OnceValue(func() *Version {
	describe := strings.TrimSpace(versionData)

	v := &Version{
		GitDescribe: describe,
		Short:       strings.TrimPrefix(describe, "v"),
	}

	// untagged: v<tag>-<n>-g<commit>
	parts := strings.Split(describe, "-")
	if len(parts) >= 3 && strings.HasPrefix(parts[len(parts)-1], "g") {
		v.GitCommit = strings.TrimPrefix(parts[len(parts)-1], "g")
	}

	return v
})
