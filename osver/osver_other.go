//go:build !darwin

package osver

// version gates only apply to macOS
func Get() string {
	return "v0.0"
}

func IsAtLeast(v string) bool {
	return true
}

func Build() string {
	return ""
}
