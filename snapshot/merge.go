package snapshot

// MergeDeep returns base with incoming merged on top. Keyed values are merged
// key by key, recursively; any other incoming value replaces what base holds
// at that position. nil entries in incoming never erase data from base.
// incoming is converted with FromPlain first.
func MergeDeep(base, incoming any) any {
	return mergeValue(FromPlain(incoming), base)
}

// MergeLayers composes plain or persistent layers ordered from strongest to
// weakest, keeping explicit settings from stronger layers while filling any
// missing data from weaker ones.
func MergeLayers(layers ...any) any {
	if len(layers) == 0 {
		return nil
	}
	merged := FromPlain(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(FromPlain(layers[i]), merged)
	}
	return merged
}

func mergeValue(strong, weak any) any {
	if strong == nil {
		return weak
	}
	strongMap, ok := strong.(Keyed)
	if !ok {
		return strong
	}
	weakMap, ok := weak.(Keyed)
	if !ok {
		weakMap = NewKeyed()
	}

	result := weakMap
	itr := strongMap.Iterator()
	for !itr.Done() {
		key, value, _ := itr.Next()
		if existing, found := result.Get(key); found {
			result = result.Set(key, mergeValue(value, existing))
			continue
		}
		if value == nil {
			continue
		}
		result = result.Set(key, value)
	}
	return result
}
