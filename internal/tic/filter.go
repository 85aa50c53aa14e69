package tic

// TagFilter je povolený seznam tagů.
// Nil *TagFilter znamená "filtr není nastaven" a propustí vše;
// filtr vytvořený z prázdného seznamu nepropustí nic.
type TagFilter struct {
	tags map[string]struct{}
}

// NewTagFilter vytvoří filtr. Tagy se normalizují stejně jako při dekódování.
func NewTagFilter(tags []string) *TagFilter {
	f := &TagFilter{tags: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		f.tags[NormalizeTag(tag)] = struct{}{}
	}
	return f
}

// Allows vrátí true, pokud filtr chybí nebo tag obsahuje.
func (f *TagFilter) Allows(tag string) bool {
	if f == nil {
		return true
	}
	_, ok := f.tags[tag]
	return ok
}

// Len vrátí počet tagů ve filtru (0 i pro nil).
func (f *TagFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.tags)
}
