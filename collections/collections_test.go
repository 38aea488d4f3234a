package collections

import (
	"reflect"
	"testing"
)

func TestSortedKeys(t *testing.T) {
	input := map[string]int{"zeta": 1, "alpha": 2, "mike": 3}

	got := SortedKeys(input)

	want := []string{"alpha", "mike", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortedKeysEmpty(t *testing.T) {
	got := SortedKeys(map[string]int{})
	if len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}

func TestSortedKeysNamedStringType(t *testing.T) {
	type serverName string

	got := SortedKeys(map[serverName]bool{"b": true, "a": true})

	want := []serverName{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
