package zones

import "slices"

type Zone struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

func newZone(id int) Zone { return Zone{ID: id, Label: Label(id)} }

// Registry is the ordered set of zones known for a passage. Order is
// discovery order after Sync and append order after Add; it is never sorted.
type Registry struct {
	Zones []Zone `json:"zones"`
	Next  int    `json:"next_id"` // id the next Add will hand out
}

// Sync rebuilds the registry from the primary text. It replaces any previous
// registry entirely.
func Sync(primary string) Registry {
	ids := ExtractIDs(primary)
	zs := make([]Zone, 0, len(ids))
	for _, id := range ids {
		zs = append(zs, newZone(id))
	}
	return Registry{Zones: zs, Next: nextID(ids)}
}

func (r Registry) IDs() []int {
	ids := make([]int, len(r.Zones))
	for i, z := range r.Zones {
		ids[i] = z.ID
	}
	return ids
}

func (r Registry) Contains(id int) bool {
	for _, z := range r.Zones {
		if z.ID == id {
			return true
		}
	}
	return false
}

func (r Registry) Len() int { return len(r.Zones) }

// Add appends the smallest positive id not yet in r. Text buffers are not
// touched; placing the token is up to the caller.
func Add(r Registry) (int, Registry) {
	id := nextID(r.IDs())
	zs := append(slices.Clone(r.Zones), newZone(id))
	out := Registry{Zones: zs}
	out.Next = nextID(out.IDs())
	return id, out
}

// nextID walks the sorted ids from 1 and returns the first value missing.
func nextID(ids []int) int {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	next := 1
	for _, id := range sorted {
		if id < next {
			continue
		}
		if id != next {
			break
		}
		next++
	}
	return next
}
