package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/rostergrid/internal/models"
)

var (
	projectName  string
	projectStart int
	projectEnd   int
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for managing roster projects.

Examples:
  # List all projects
  rosterctl project list

  # Create a new project with the default 09:00 - 17:00 window
  rosterctl project create --name "Spring Fair"

  # Rename a project
  rosterctl project rename <id> --name "Summer Fair"`,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		projects, err := c.ListProjects(context.Background())
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		if GetOutput() == "json" {
			return printJSON(projects)
		}
		printProjects(os.Stdout, projects)
		return nil
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(projectName) == "" {
			return fmt.Errorf("--name is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		var start, end *int
		if cmd.Flags().Changed("start") {
			start = &projectStart
		}
		if cmd.Flags().Changed("end") {
			end = &projectEnd
		}
		p, err := c.CreateProject(context.Background(), projectName, start, end)
		if err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		if GetOutput() == "json" {
			return printJSON(p)
		}

		fmt.Printf("\nProject created successfully:\n")
		printProject(os.Stdout, p)
		if models.IsLocalID(p.ID) {
			fmt.Fprintln(os.Stderr, "Warning: the server could not store the project; it exists only in server memory.")
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show project details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.GetProject(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if GetOutput() == "json" {
			return printJSON(p)
		}
		printProject(os.Stdout, p)
		return nil
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(projectName) == "" {
			return fmt.Errorf("--name is required")
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		name := projectName
		p, err := c.UpdateProject(context.Background(), args[0], &models.ProjectPatch{Name: &name})
		if err != nil {
			return fmt.Errorf("rename project: %w", err)
		}
		fmt.Printf("Project renamed to %q\n", p.Name)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteProject(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		fmt.Printf("Project %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectShowCmd, projectRenameCmd, projectDeleteCmd)

	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectCreateCmd.Flags().IntVar(&projectStart, "start", models.DefaultStartHour, "first hour of the roster (0-23)")
	projectCreateCmd.Flags().IntVar(&projectEnd, "end", models.DefaultEndHour, "hour the roster ends (0-23)")

	projectRenameCmd.Flags().StringVar(&projectName, "name", "", "new project name (required)")
}

func printProjects(w io.Writer, projects []*models.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}

	fmt.Fprintf(w, "\n%-36s  %-24s  %-13s  %-5s  %s\n", "ID", "NAME", "WINDOW", "ROLES", "CREATED")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, p := range projects {
		fmt.Fprintf(w, "%-36s  %-24s  %-13s  %-5d  %s\n",
			p.ID,
			truncate(p.Name, 24),
			window(p),
			len(p.Roles),
			p.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	fmt.Fprintf(w, "\nTotal: %d project(s)\n", len(projects))
}

func printProject(w io.Writer, p *models.Project) {
	fmt.Fprintf(w, "  ID:      %s\n", p.ID)
	fmt.Fprintf(w, "  Name:    %s\n", p.Name)
	fmt.Fprintf(w, "  Window:  %s\n", window(p))
	fmt.Fprintf(w, "  Roles:   %s\n", strings.Join(p.Roles, ", "))
	fmt.Fprintf(w, "  Created: %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
}

func window(p *models.Project) string {
	return fmt.Sprintf("%s - %s", models.FormatSlot(p.StartTime), models.FormatSlot(p.EndTime))
}

// truncate shortens s to max runes, marking the cut with "..".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 2 {
		return string(r[:max])
	}
	return string(r[:max-2]) + ".."
}
