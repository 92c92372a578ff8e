package deviation

import "sort"

// Scene is the set of objects a level places around its polygons, together
// with the used flags of its disposable objects.
type Scene struct {
	objects []Object
	used    map[string]bool
}

// NewScene creates a scene with every disposable object still available.
func NewScene(objects ...Object) *Scene {
	return &Scene{
		objects: objects,
		used:    make(map[string]bool),
	}
}

// Objects returns the scene objects in evaluation order.
func (s *Scene) Objects() []Object {
	return s.objects
}

// IsUsed reports whether the disposable object id has already been consumed.
func (s *Scene) IsUsed(id string) bool {
	return s.used[id]
}

// MarkUsed flips the used flag of the given objects. The flag never goes back
// during a session except through Reset.
func (s *Scene) MarkUsed(ids ...string) {
	for _, id := range ids {
		s.used[id] = true
	}
}

// UsedIDs returns the consumed object ids in sorted order.
func (s *Scene) UsedIDs() []string {
	ids := make([]string, 0, len(s.used))
	for id := range s.used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset makes every disposable object available again.
func (s *Scene) Reset() {
	s.used = make(map[string]bool)
}
