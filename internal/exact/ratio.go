// File path: internal/exact/ratio.go
package exact

// Ratio computes a character-level similarity in [0, 1] between two strings:
// twice the number of matched runes over the combined length, with matches
// found by repeatedly taking the longest common block. Equal strings score
// 1, disjoint strings score 0.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingTotal(ar, br)) / float64(total)
}

type block struct {
	a, b, size int
}

type span struct {
	alo, ahi, blo, bhi int
}

func matchingTotal(a, b []rune) int {
	b2j := buildB2J(b)
	stack := []span{{0, len(a), 0, len(b)}}
	total := 0
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m := findLongestBlock(a, b2j, s)
		if m.size == 0 {
			continue
		}
		total += m.size
		if s.alo < m.a && s.blo < m.b {
			stack = append(stack, span{s.alo, m.a, s.blo, m.b})
		}
		if m.a+m.size < s.ahi && m.b+m.size < s.bhi {
			stack = append(stack, span{m.a + m.size, s.ahi, m.b + m.size, s.bhi})
		}
	}
	return total
}

// buildB2J indexes the positions of each rune in b. Runes that account for
// more than one percent of a long string are treated as noise and excluded,
// which keeps the scan from degenerating on filler characters.
func buildB2J(b []rune) map[rune][]int {
	b2j := make(map[rune][]int)
	for idx, r := range b {
		b2j[r] = append(b2j[r], idx)
	}
	if n := len(b); n >= 200 {
		threshold := n/100 + 1
		for r, positions := range b2j {
			if len(positions) > threshold {
				delete(b2j, r)
			}
		}
	}
	return b2j
}

// findLongestBlock locates the longest block of runes common to
// a[s.alo:s.ahi] and b[s.blo:s.bhi], preferring the earliest such block.
func findLongestBlock(a []rune, b2j map[rune][]int, s span) block {
	best := block{a: s.alo, b: s.blo}
	lengths := make(map[int]int)
	for i := s.alo; i < s.ahi; i++ {
		updated := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := lengths[j-1] + 1
			updated[j] = k
			if k > best.size {
				best = block{a: i - k + 1, b: j - k + 1, size: k}
			}
		}
		lengths = updated
	}
	return best
}
