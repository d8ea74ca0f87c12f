// cmd/themectl/commands.go
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codr1/themestudio/internal/palette"
	"github.com/codr1/themestudio/internal/render"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and saved themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeStore, err := openManager(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeStore()

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tKIND\tACTIVE")
			for _, entry := range m.Themes() {
				kind := "custom"
				if entry.IsBuiltIn {
					kind = "built-in"
				}
				active := ""
				if entry.IsActive {
					active = "*"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", entry.ID, entry.Name, kind, active)
			}
			return writer.Flush()
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <theme-id>",
		Short: "Write a theme snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeStore, err := openManager(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeStore()

			data, err := m.ExportSnapshot(args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (defaults to stdout)")
	return cmd
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	var activate bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add a theme from a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			m, closeStore, err := openManager(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeStore()

			theme, err := m.ImportSnapshot(cmd.Context(), blob)
			if err != nil {
				return err
			}
			if activate {
				if _, err := m.SelectActive(cmd.Context(), theme.ID); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s\n", theme.Name, theme.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activate, "activate", false, "make the imported theme active")
	return cmd
}

func newSelectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "select <theme-id>",
		Short: "Make a theme the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeStore, err := openManager(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeStore()

			theme, err := m.SelectActive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active theme: %s (%s)\n", theme.Name, theme.ID)
			return nil
		},
	}
}

func newCSSCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "css [theme-id]",
		Short: "Print CSS custom properties for a theme",
		Long:  "Print CSS custom properties for a theme, or for the active theme when no id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeStore, err := openManager(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeStore()

			theme := m.Active()
			if len(args) == 1 {
				if theme, err = m.Theme(args[0]); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.CSSVariables(theme, m.DefaultTheme()))
			return err
		},
	}
}

func newShadesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shades <hex>",
		Short: "Print the 50-950 shade ramp for a colour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ramp, err := palette.GenerateRamp(args[0])
			if err != nil {
				return err
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			ramp.Each(func(step int, hex string) {
				fmt.Fprintf(writer, "%d\t%s\n", step, hex)
			})
			return writer.Flush()
		},
	}
}
