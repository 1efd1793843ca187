package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-yellow-bee/rostergrid/internal/export"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

var (
	exportFormat  string
	exportSignups bool
	exportOut     string
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster grid commands",
	Long: `Commands for editing a project's volunteer roster.

Edits are applied on the server immediately and written to storage in the
background. Use "roster save" to write the whole grid and wait for the
result.

Examples:
  rosterctl roster show <project-id>
  rosterctl roster add-role <project-id> "Setup"
  rosterctl roster assign <project-id> 09:00 "Setup" "Ann"
  rosterctl roster clear <project-id> 09:00 "Setup"
  rosterctl roster save <project-id>`,
}

var rosterShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show the roster grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rst, err := c.Roster(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		return showRoster(rst)
	},
}

var rosterAddRoleCmd = &cobra.Command{
	Use:   "add-role <project-id> <role>",
	Short: "Add a role column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.AddRole(context.Background(), args[0], args[1]); err != nil {
			return fmt.Errorf("add role: %w", err)
		}
		fmt.Printf("Role %q added.\n", strings.TrimSpace(args[1]))
		return nil
	},
}

var rosterRemoveRoleCmd = &cobra.Command{
	Use:   "remove-role <project-id> <role>",
	Short: "Remove a role column and its sign-ups",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.RemoveRole(context.Background(), args[0], args[1]); err != nil {
			return fmt.Errorf("remove role: %w", err)
		}
		fmt.Printf("Role %q removed.\n", args[1])
		return nil
	},
}

var rosterAssignCmd = &cobra.Command{
	Use:   "assign <project-id> <slot> <role> [volunteer]",
	Short: "Sign a volunteer up for a cell",
	Long: `Sign a volunteer up for one time slot and role.

Without a volunteer name the editor named in the API token signs up.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		volunteer := ""
		if len(args) == 4 {
			volunteer = args[3]
		}
		rst, err := c.Assign(context.Background(), args[0], args[1], args[2], volunteer)
		if err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		name, _ := rst.Grid.Get(args[1], args[2]).Volunteer()
		fmt.Printf("%s signed up for %s at %s\n", name, args[2], args[1])
		return nil
	},
}

var rosterClearCmd = &cobra.Command{
	Use:   "clear <project-id> <slot> <role>",
	Short: "Remove a volunteer from a cell",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if _, err := c.Clear(context.Background(), args[0], args[1], args[2]); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		fmt.Println("Volunteer removed.")
		return nil
	},
}

var rosterSaveCmd = &cobra.Command{
	Use:   "save <project-id>",
	Short: "Write the whole roster to storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.Save(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("save roster: %w", err)
		}
		if GetOutput() == "json" {
			return printJSON(res)
		}
		fmt.Printf("Roster saved (%d cell(s) filled).\n", res.Filled)
		return nil
	},
}

var rosterExportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export the roster as CSV or JSON",
	Long: `Export the roster grid, or with --signups only the filled cells.

Examples:
  rosterctl roster export <project-id> --format csv --out roster.csv
  rosterctl roster export <project-id> --signups --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, ok := export.ParseFormat(exportFormat)
		if !ok {
			return fmt.Errorf("invalid --format %q (csv, json)", exportFormat)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		rst, err := c.Roster(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}

		var w io.Writer = os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		exp := export.NewExporter(format, w)
		if exportSignups {
			return exp.ExportSignups(rst)
		}
		return exp.ExportGrid(rst)
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterShowCmd, rosterAddRoleCmd, rosterRemoveRoleCmd, rosterAssignCmd, rosterClearCmd, rosterSaveCmd, rosterExportCmd)

	rosterExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "export format (csv, json)")
	rosterExportCmd.Flags().BoolVar(&exportSignups, "signups", false, "export only filled cells")
	rosterExportCmd.Flags().StringVar(&exportOut, "out", "", "write to file instead of stdout")
}

func showRoster(rst *roster.Roster) error {
	if GetOutput() == "json" {
		return printJSON(rst)
	}
	width := 120
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	renderRoster(os.Stdout, rst, width)
	return nil
}

// renderRoster prints the grid as a table no wider than width, shrinking
// role columns to fit.
func renderRoster(w io.Writer, rst *roster.Roster, width int) {
	p := rst.Project
	fmt.Fprintf(w, "\n%s (%s)\n", p.Name, window(p))
	if len(rst.Roles) == 0 {
		fmt.Fprintln(w, "Please add at least one role to create your roster")
		return
	}

	const slotCol = 6
	col := 20
	if n := len(rst.Roles); n > 0 {
		if fit := (width - slotCol) / n; fit-2 < col {
			col = max(fit-2, 4)
		}
	}

	fmt.Fprintf(w, "%-*s", slotCol, "TIME")
	for _, role := range rst.Roles {
		fmt.Fprintf(w, "  %-*s", col, truncate(role, col))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", min(width, slotCol+len(rst.Roles)*(col+2))))

	filled := 0
	for _, slot := range rst.Slots {
		fmt.Fprintf(w, "%-*s", slotCol, slot)
		for _, role := range rst.Roles {
			cell := "-"
			if name, ok := rst.Grid.Get(slot, role).Volunteer(); ok {
				cell = name
				filled++
			}
			fmt.Fprintf(w, "  %-*s", col, truncate(cell, col))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d of %d cell(s) filled\n", filled, len(rst.Slots)*len(rst.Roles))
}
