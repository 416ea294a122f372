package service

// indexOf returns the index of id in seq, or -1.
func indexOf(seq []string, id string) int {
	for i, v := range seq {
		if v == id {
			return i
		}
	}
	return -1
}

// removeAt returns a copy of seq without the element at i.
func removeAt(seq []string, i int) []string {
	out := make([]string, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	return append(out, seq[i+1:]...)
}

// moveIndex returns a copy of seq with the element at from removed and
// reinserted at to. Both indexes must already be validated.
func moveIndex(seq []string, from, to int) []string {
	id := seq[from]
	without := removeAt(seq, from)
	out := make([]string, 0, len(seq))
	out = append(out, without[:to]...)
	out = append(out, id)
	return append(out, without[to:]...)
}

// firstDuplicate returns the first id appearing more than once in seq,
// or "" if all ids are distinct.
func firstDuplicate(seq []string) string {
	seen := make(map[string]struct{}, len(seq))
	for _, id := range seq {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}
