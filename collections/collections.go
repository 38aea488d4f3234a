package collections

import "sort"

// SortedKeys returns the map's keys in ascending order, for stable iteration
func SortedKeys[K ~string, V any](items map[K]V) []K {
	keys := make([]K, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
