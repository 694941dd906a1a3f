package engine

// FilterByCategory returns the protocols whose category matches the
// selector, preserving input order. CategoryAll returns every protocol
// unchanged. A selector outside the known set matches nothing, keeping the
// function total rather than failing.
func FilterByCategory(protocols []Protocol, category Category) []Protocol {
	if category == CategoryAll {
		out := make([]Protocol, len(protocols))
		copy(out, protocols)
		return out
	}

	out := make([]Protocol, 0, len(protocols))
	for _, p := range protocols {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
