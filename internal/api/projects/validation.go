package projects

import (
	"slices"
	"strings"

	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

const maxNameLength = 100

func invalid(msg string) error {
	return &roster.ValidationError{Message: msg}
}

// ValidateName checks a project name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(roster.MsgProjectNameEmpty)
	}
	if len(name) > maxNameLength {
		return invalid("Project name must be 100 characters or less")
	}
	return nil
}

// ValidatePatch checks a partial update against the project it will be
// applied to. A grid in the patch may only use slots in the resulting window
// and roles in the resulting role list.
func ValidatePatch(current *models.Project, patch *models.ProjectPatch) error {
	if patch.IsEmpty() {
		return invalid("No fields to update")
	}
	if patch.Name != nil {
		if err := ValidateName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.StartTime != nil || patch.EndTime != nil {
		start, end := current.StartTime, current.EndTime
		if patch.StartTime != nil {
			start = *patch.StartTime
		}
		if patch.EndTime != nil {
			end = *patch.EndTime
		}
		if err := roster.ValidateWindow(start, end); err != nil {
			return err
		}
	}
	if patch.Roles != nil {
		seen := make(map[string]bool, len(*patch.Roles))
		for _, role := range *patch.Roles {
			if strings.TrimSpace(role) == "" {
				return invalid(roster.MsgRoleNameEmpty)
			}
			if seen[role] {
				return invalid(roster.MsgRoleExists)
			}
			seen[role] = true
		}
	}
	if patch.VolunteerData != nil {
		next := current.Clone()
		patch.Apply(next)
		slots := next.TimeSlots()
		for slot, cells := range patch.VolunteerData {
			if !slices.Contains(slots, slot) {
				return invalid(roster.MsgUnknownSlot)
			}
			for role := range cells {
				if !next.HasRole(role) {
					return invalid(roster.MsgUnknownRole)
				}
			}
		}
	}
	return nil
}

// reshapeGrid fits the project's existing grid to a patch that moves the
// window or replaces the roles without sending a grid of its own.
func reshapeGrid(current *models.Project, patch *models.ProjectPatch) {
	if patch.VolunteerData != nil || current.VolunteerData == nil {
		return
	}
	if patch.StartTime == nil && patch.EndTime == nil && patch.Roles == nil {
		return
	}
	next := current.Clone()
	patch.Apply(next)
	patch.VolunteerData = current.VolunteerData.Reshape(next.TimeSlots(), next.Roles)
}
