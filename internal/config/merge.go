package config

import "slices"

// mergeUniqueValues overlays user values on the base ones. A user entry
// replaces the base entry with the same value; new values are appended and
// the result stays ordered by value.
func mergeUniqueValues(base []UniqueValueConfig, overlay []UniqueValueConfig) []UniqueValueConfig {
	if len(base) == 0 {
		return append([]UniqueValueConfig(nil), overlay...)
	}
	if len(overlay) == 0 {
		return append([]UniqueValueConfig(nil), base...)
	}

	overlayByValue := make(map[int]UniqueValueConfig, len(overlay))
	for _, v := range overlay {
		overlayByValue[v.Value] = v
	}

	merged := make([]UniqueValueConfig, 0, len(base)+len(overlay))
	for _, v := range base {
		if replacement, ok := overlayByValue[v.Value]; ok {
			merged = append(merged, replacement)
			delete(overlayByValue, v.Value)
			continue
		}
		merged = append(merged, v)
	}
	for _, v := range overlay {
		if _, ok := overlayByValue[v.Value]; ok {
			merged = append(merged, v)
			delete(overlayByValue, v.Value)
		}
	}
	slices.SortStableFunc(merged, func(a, b UniqueValueConfig) int {
		return a.Value - b.Value
	})
	return merged
}
