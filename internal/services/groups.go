package services

// groupOrder returns the preferred names followed by any other names in the
// order they were first seen. Group-by results iterate in this order so that
// ties resolve the same way on every run.
func groupOrder(preferred, seen []string) []string {
	out := make([]string, 0, len(preferred)+len(seen))
	known := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		known[name] = true
		out = append(out, name)
	}
	for _, name := range seen {
		if !known[name] {
			known[name] = true
			out = append(out, name)
		}
	}
	return out
}

// argmax returns the first name in order with the largest sum. Names absent
// from sums are skipped. ok is false when no name has a sum.
func argmax(order []string, sums map[string]float64) (string, bool) {
	best, found := "", false
	var bestVal float64
	for _, name := range order {
		v, ok := sums[name]
		if !ok {
			continue
		}
		if !found || v > bestVal {
			best, bestVal, found = name, v, true
		}
	}
	return best, found
}

// sumTracker accumulates per-name sums and remembers first-seen order.
type sumTracker struct {
	sums map[string]float64
	seen []string
}

func newSumTracker() *sumTracker {
	return &sumTracker{sums: make(map[string]float64)}
}

func (s *sumTracker) add(name string, v float64) {
	if _, ok := s.sums[name]; !ok {
		s.seen = append(s.seen, name)
	}
	s.sums[name] += v
}

func (s *sumTracker) top(preferred []string, fallback string) string {
	if name, ok := argmax(groupOrder(preferred, s.seen), s.sums); ok {
		return name
	}
	return fallback
}

func percentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
