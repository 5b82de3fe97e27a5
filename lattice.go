package mucab

import "strings"

// fallbackPenalty is the fixed cost charged for emitting a single input
// character verbatim when no dictionary entry covers it. It exceeds any
// realistic word/connection cost so that paths through dictionary
// entries are always preferred when available, while keeping the
// lattice connected when they are not (spec §4.4, §9). It is not a
// tunable: changing it changes segmentation results, so it stays a
// named constant for auditability rather than a parameter.
const fallbackPenalty = 10_000

// latticeMatch is one edge into lattice[end]: a dictionary match
// starting at start and covering end-start characters.
type latticeMatch struct {
	handle EntryHandle
	start  int
}

// node is a Viterbi lattice node: either a matched dictionary entry
// (isFallback == false) or a single verbatim input character
// (isFallback == true). prev indexes into nodes[startPos] (or is -1 for
// the BOS sentinel and root of the walk).
type node struct {
	startPos, endPos int
	handle           EntryHandle
	isFallback       bool
	cost             int32
	prev             int
}

// buildLattice enumerates, for every start position, the dictionary
// matches via Lookup and files each one under the character position it
// ends at (spec §4.4).
func buildLattice(d *Dictionary, text []rune) ([][]latticeMatch, error) {
	n := len(text)
	lattice := make([][]latticeMatch, n+1)
	for start := 0; start < n; start++ {
		matches, err := Lookup(d, text, start)
		if err != nil {
			return nil, err
		}
		for _, h := range matches {
			k := len([]rune(d.entry(h).Surface))
			end := start + k
			lattice[end] = append(lattice[end], latticeMatch{handle: h, start: start})
		}
	}
	return lattice, nil
}

// Transliterate converts text into its dictionary reading by
// constructing a Viterbi lattice over every dictionary match and
// selecting the minimum-cost path (spec §4.4). Unmatched characters are
// preserved verbatim via fallback nodes. Transliterate never fails on
// the input itself: if the dictionary has no path at all it returns
// text unchanged; it only returns an error if reading the dictionary's
// underlying file fails.
func Transliterate(d *Dictionary, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	chars := []rune(text)
	n := len(chars)

	lattice, err := buildLattice(d, chars)
	if err != nil {
		return "", err
	}

	nodes := make([][]node, n+1)
	nodes[0] = []node{{startPos: 0, endPos: 0, isFallback: true, cost: 0, prev: -1}}

	for pos := 1; pos <= n; pos++ {
		if len(lattice[pos]) == 0 {
			for prevIdx := range nodes[pos-1] {
				nodes[pos] = append(nodes[pos], node{
					startPos:   pos - 1,
					endPos:     pos,
					isFallback: true,
					cost:       nodes[pos-1][prevIdx].cost + fallbackPenalty,
					prev:       prevIdx,
				})
			}
			continue
		}

		for _, m := range lattice[pos] {
			if len(nodes[m.start]) == 0 {
				continue
			}
			e := d.entry(m.handle)

			bestCost := int32(0)
			bestPrev := -1
			for prevIdx, p := range nodes[m.start] {
				prevPosID := uint16(0)
				if m.start != 0 && !p.isFallback {
					prevPosID = d.entry(p.handle).PosID
				}
				connCost := int32(d.MatrixCost(prevPosID, e.PosID))
				total := p.cost + int32(e.WordCost) + connCost
				if bestPrev == -1 || total < bestCost {
					bestCost = total
					bestPrev = prevIdx
				}
			}
			if bestPrev != -1 {
				nodes[pos] = append(nodes[pos], node{
					startPos: m.start,
					endPos:   pos,
					handle:   m.handle,
					cost:     bestCost,
					prev:     bestPrev,
				})
			}
		}
	}

	if len(nodes[n]) == 0 {
		return text, nil
	}

	bestIdx, bestCost := 0, nodes[n][0].cost
	for i, nd := range nodes[n] {
		if nd.cost < bestCost {
			bestCost, bestIdx = nd.cost, i
		}
	}

	var pieces []string
	pos, idx := n, bestIdx
	for pos > 0 {
		nd := nodes[pos][idx]
		if nd.startPos == 0 && nd.endPos == 0 {
			break
		}
		if nd.isFallback {
			pieces = append(pieces, string(chars[nd.startPos]))
		} else {
			reading, err := d.readingFor(nd.handle)
			if err != nil {
				return "", err
			}
			pieces = append(pieces, reading)
		}
		if nd.prev < 0 {
			break
		}
		pos, idx = nd.startPos, nd.prev
	}

	// pieces were collected end-to-start; reverse into source order.
	for l, r := 0, len(pieces)-1; l < r; l, r = l+1, r-1 {
		pieces[l], pieces[r] = pieces[r], pieces[l]
	}

	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p)
	}
	return sb.String(), nil
}
