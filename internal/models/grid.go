package models

import "maps"

// Grid maps a time slot to a mapping of role to assignment.
type Grid map[string]map[string]Assignment

// NewGrid returns a grid with every slot/role pair unassigned.
func NewGrid(slots, roles []string) Grid {
	g := make(Grid, len(slots))
	for _, slot := range slots {
		cells := make(map[string]Assignment, len(roles))
		for _, role := range roles {
			cells[role] = Unassigned()
		}
		g[slot] = cells
	}
	return g
}

// Clone returns a deep copy. Cloning nil yields nil.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	c := make(Grid, len(g))
	for slot, cells := range g {
		c[slot] = maps.Clone(cells)
		if c[slot] == nil {
			c[slot] = map[string]Assignment{}
		}
	}
	return c
}

// AddRole inserts an unassigned cell for role into each of slots, creating
// missing slot rows.
func (g Grid) AddRole(slots []string, role string) {
	for _, slot := range slots {
		cells, ok := g[slot]
		if !ok || cells == nil {
			cells = map[string]Assignment{}
			g[slot] = cells
		}
		cells[role] = Unassigned()
	}
}

// RemoveRole deletes role from every slot row. Rows without it are left
// as they are.
func (g Grid) RemoveRole(role string) {
	for _, cells := range g {
		delete(cells, role)
	}
}

// Reshape returns a copy holding exactly one cell per slot/role pair.
// Assignments inside the new shape are kept; everything else is dropped and
// new cells start unassigned.
func (g Grid) Reshape(slots, roles []string) Grid {
	out := NewGrid(slots, roles)
	for slot, cells := range out {
		for role := range cells {
			if a, ok := g[slot][role]; ok {
				cells[role] = a
			}
		}
	}
	return out
}

// Set stores a cell, creating the slot row if needed.
func (g Grid) Set(slot, role string, a Assignment) {
	cells, ok := g[slot]
	if !ok || cells == nil {
		cells = map[string]Assignment{}
		g[slot] = cells
	}
	cells[role] = a
}

// Get returns a cell. Missing cells read as Unassigned.
func (g Grid) Get(slot, role string) Assignment {
	return g[slot][role]
}

// Filled returns the number of assigned cells.
func (g Grid) Filled() int {
	n := 0
	for _, cells := range g {
		for _, a := range cells {
			if a.IsAssigned() {
				n++
			}
		}
	}
	return n
}
