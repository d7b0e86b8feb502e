package core

// idSet is a set of client ids. Both registry indices are built from it.
type idSet map[string]struct{}

// add inserts id. Returns true if newly added.
func (s idSet) add(id string) bool {
	if _, exists := s[id]; exists {
		return false
	}
	s[id] = struct{}{}
	return true
}

// remove deletes id. Returns true if removed.
func (s idSet) remove(id string) bool {
	if _, exists := s[id]; !exists {
		return false
	}
	delete(s, id)
	return true
}

// index maps a key (channel or user id) to the client ids filed under it.
// Empty entries are pruned so memory stays bounded by active keys.
type index map[string]idSet

func (ix index) add(key, id string) {
	set, ok := ix[key]
	if !ok {
		set = make(idSet)
		ix[key] = set
	}
	set.add(id)
}

func (ix index) remove(key, id string) {
	set, ok := ix[key]
	if !ok {
		return
	}
	set.remove(id)
	if len(set) == 0 {
		delete(ix, key)
	}
}
