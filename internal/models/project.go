// Package models defines the project and roster data types.
package models

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Project is a scheduled event with an hour window, a role list and a
// volunteer grid.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartTime     int       `json:"start_time"`
	EndTime       int       `json:"end_time"`
	Roles         []string  `json:"roles"`
	VolunteerData Grid      `json:"volunteer_data"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TimeSlots returns the project's hourly slots.
func (p *Project) TimeSlots() []string {
	return TimeSlots(p.StartTime, p.EndTime)
}

// HasRole reports whether role is in the role list (exact match).
func (p *Project) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.Roles != nil {
		c.Roles = slices.Clone(p.Roles)
	}
	c.VolunteerData = p.VolunteerData.Clone()
	return &c
}

// ProjectPatch is a partial project update. Nil fields are left untouched.
// A nil VolunteerData means "not set"; an empty non-nil grid replaces the
// stored grid.
type ProjectPatch struct {
	Name          *string   `json:"name,omitempty"`
	StartTime     *int      `json:"start_time,omitempty"`
	EndTime       *int      `json:"end_time,omitempty"`
	Roles         *[]string `json:"roles,omitempty"`
	VolunteerData Grid      `json:"volunteer_data"`
}

// RolesPatch returns a patch replacing the role list.
func RolesPatch(roles []string) *ProjectPatch {
	r := slices.Clone(roles)
	if r == nil {
		r = []string{}
	}
	return &ProjectPatch{Roles: &r}
}

// GridPatch returns a patch replacing the volunteer grid.
func GridPatch(grid Grid) *ProjectPatch {
	g := grid.Clone()
	if g == nil {
		g = Grid{}
	}
	return &ProjectPatch{VolunteerData: g}
}

// IsEmpty reports whether the patch changes nothing.
func (p *ProjectPatch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.StartTime == nil && p.EndTime == nil &&
		p.Roles == nil && p.VolunteerData == nil)
}

// Merge folds a newer patch into p. Fields set in newer win.
func (p *ProjectPatch) Merge(newer *ProjectPatch) {
	if newer == nil {
		return
	}
	if newer.Name != nil {
		p.Name = newer.Name
	}
	if newer.StartTime != nil {
		p.StartTime = newer.StartTime
	}
	if newer.EndTime != nil {
		p.EndTime = newer.EndTime
	}
	if newer.Roles != nil {
		p.Roles = newer.Roles
	}
	if newer.VolunteerData != nil {
		p.VolunteerData = newer.VolunteerData
	}
}

// Apply writes the patch's fields onto project. It does not touch
// timestamps.
func (p *ProjectPatch) Apply(project *Project) {
	if p == nil {
		return
	}
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.StartTime != nil {
		project.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		project.EndTime = *p.EndTime
	}
	if p.Roles != nil {
		project.Roles = slices.Clone(*p.Roles)
	}
	if p.VolunteerData != nil {
		project.VolunteerData = p.VolunteerData.Clone()
	}
}

// LocalIDPrefix marks ids minted locally for projects that never reached
// the remote store.
const LocalIDPrefix = "local_"

// IsLocalID reports whether id was minted locally.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NewLocalID mints a time-based local id.
func NewLocalID(now time.Time) string {
	return LocalIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}
