// Package hierarchy indexes records by id and by declared parent.
package hierarchy

// Index maps record ids to input positions and parent ids to their children.
// It is built incrementally so callers can fill it in chunks.
type Index struct {
	byID     map[string]int
	children map[string][]int
	parents  []string
}

// New returns an empty Index sized for n records.
func New(n int) *Index {
	return &Index{
		byID:     make(map[string]int, n),
		children: make(map[string][]int),
	}
}

// Add registers the record at position pos. parentID may be empty.
// A repeated id points at its latest position.
func (ix *Index) Add(pos int, id, parentID string) {
	ix.byID[id] = pos
	if parentID == "" {
		return
	}
	if _, ok := ix.children[parentID]; !ok {
		ix.parents = append(ix.parents, parentID)
	}
	ix.children[parentID] = append(ix.children[parentID], pos)
}

// Lookup returns the input position of id.
func (ix *Index) Lookup(id string) (int, bool) {
	pos, ok := ix.byID[id]
	return pos, ok
}

// Has reports whether id is present in the input.
func (ix *Index) Has(id string) bool {
	_, ok := ix.byID[id]
	return ok
}

// Children returns the positions of records declaring parentID, in input order.
func (ix *Index) Children(parentID string) []int {
	return ix.children[parentID]
}

// Parents returns every referenced parent id in first-seen order, dangling ones included.
func (ix *Index) Parents() []string {
	return ix.parents
}

// Len returns the number of distinct ids.
func (ix *Index) Len() int { return len(ix.byID) }
