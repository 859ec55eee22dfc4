package envutil

import (
	"sort"
	"strings"
)

type EnvMap map[string]string

func ToMap(pairs []string) EnvMap {
	m := make(EnvMap, len(pairs))
	for _, kv := range pairs {
		m.SetPair(kv)
	}
	return m
}

func (m EnvMap) SetPair(kv string) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok {
		return
	}
	m[k] = v
}

func (m EnvMap) ToPairs() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func Dedupe(env []string) []string {
	// later ones override earlier ones
	return ToMap(env).ToPairs()
}
