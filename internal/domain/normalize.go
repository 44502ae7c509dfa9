package domain

// NormalizeStats counts sentinel cells rewritten to null, per column.
type NormalizeStats struct {
	Replaced map[string]int
}

// Total returns the number of rewritten cells.
func (s NormalizeStats) Total() int {
	n := 0
	for _, c := range s.Replaced {
		n += c
	}
	return n
}

// NormalizeMissing returns a copy of f where every int or float cell equal to
// a sentinel is null. Text and temporal cells are never touched, so
// categorical codes that look like sentinels survive. Running it twice with
// the same set changes nothing the second time.
func NormalizeMissing(f Frame, sentinels SentinelSet) (Frame, NormalizeStats) {
	out := f.Clone()
	stats := NormalizeStats{Replaced: make(map[string]int)}
	if sentinels.Len() == 0 {
		return out, stats
	}

	for _, row := range out.Rows {
		for j, v := range row {
			n, ok := v.Number()
			if !ok || !sentinels.Contains(n) {
				continue
			}
			row[j] = Null()
			stats.Replaced[out.Columns[j]]++
		}
	}
	return out, stats
}
