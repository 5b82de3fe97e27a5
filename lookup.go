package mucab

// Lookup returns every dictionary entry whose surface matches text
// starting at rune position i, by first-character index probe followed
// by a codepoint-wise comparison (spec §4.3). The returned handles
// preserve on-disk entry order; the compiler does not guarantee
// uniqueness of (surface, pos_id, cost), so no de-duplication happens
// here.
func Lookup(d *Dictionary, text []rune, i int) ([]EntryHandle, error) {
	if i >= len(text) {
		return nil, nil
	}
	c := text[i]
	entries, err := d.entriesFor(c)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var matches []EntryHandle
	for localIdx, e := range entries {
		surf := []rune(e.Surface)
		k := len(surf)
		if i+k > len(text) {
			continue
		}
		match := true
		for j := 0; j < k; j++ {
			if text[i+j] != surf[j] {
				match = false
				break
			}
		}
		if match {
			matches = append(matches, EntryHandle{FirstChar: c, LocalIdx: localIdx})
		}
	}
	return matches, nil
}

// entry resolves a handle to its DictEntry via the dictionary's
// per-character cache, which is guaranteed populated by the time a
// handle exists (Lookup always calls entriesFor first).
func (d *Dictionary) entry(h EntryHandle) DictEntry {
	return d.cache[h.FirstChar][h.LocalIdx]
}
