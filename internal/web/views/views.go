// Package views renders the roster pages as templ components. Edit the
// .templ files and run templ generate.
package views

//go:generate templ generate

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
	"github.com/good-yellow-bee/rostergrid/internal/web/session"
)

// IndexData is what the main page shows besides the session.
type IndexData struct {
	Projects []*models.Project
	// Selected is nil when no project is selected.
	Selected  *roster.Roster
	LoadError string
	Flashes   []session.Flash
}

var (
	minHour = strconv.Itoa(models.MinHour)
	maxHour = strconv.Itoa(models.MaxHour)
)

// projectPath is the form target for an action on one project.
func projectPath(id, action string) templ.SafeURL {
	return templ.URL("/projects/" + url.PathEscape(id) + "/" + action)
}
