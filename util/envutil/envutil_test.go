package envutil

import (
	"reflect"
	"testing"
)

func TestToMapPairsRoundtrip(t *testing.T) {
	t.Parallel()

	m := ToMap([]string{"B=2", "A=1", "bad", "A=3"})
	if m["A"] != "3" || m["B"] != "2" {
		t.Errorf("unexpected map: %v", m)
	}
	if _, ok := m["bad"]; ok {
		t.Error("pair without = should be dropped")
	}

	pairs := m.ToPairs()
	want := []string{"A=3", "B=2"}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("ToPairs() = %v, want %v", pairs, want)
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	got := Dedupe([]string{"PATH=/a", "HOME=/x", "PATH=/b"})
	want := []string{"HOME=/x", "PATH=/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe() = %v, want %v", got, want)
	}
}
