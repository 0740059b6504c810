package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"task-tracker/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				categories, err := a.categories.Refresh(cmd.Context())
				if err != nil {
					return errReported
				}
				return writeCategories(cmd.OutOrStdout(), format, categories)
			})
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
	cmd.AddCommand(categoryAddCmd())
	cmd.AddCommand(categoryRmCmd())

	return cmd
}

func categoryAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				if _, err := a.categories.Refresh(cmd.Context()); err != nil {
					return errReported
				}
				if err := a.categories.Add(cmd.Context(), args[0]); err != nil {
					return errReported
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
				return nil
			})
		},
	}
}

func categoryRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [name]",
		Short: "Remove a category after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				if err := a.requireSession(); err != nil {
					return err
				}
				if _, err := a.categories.Refresh(cmd.Context()); err != nil {
					return errReported
				}
				tok, err := a.categories.ProposeRemoval(args[0])
				if err != nil {
					return errReported
				}

				question := fmt.Sprintf("Remove category %q?", tok.Label)
				if !yes && !confirm(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), question) {
					a.categories.CancelRemoval(tok.ID)
					fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
				if err := a.categories.ConfirmRemoval(cmd.Context(), tok.ID); err != nil {
					return errReported
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", tok.Label)
				return nil
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func writeCategories(w io.Writer, format string, categories []model.Category) error {
	switch format {
	case "json":
		return writeJSON(w, categories)
	case "yaml":
		return writeYAML(w, categories)
	case "text", "":
		if len(categories) == 0 {
			_, err := fmt.Fprintln(w, "No categories.")
			return err
		}
		for _, cat := range categories {
			if _, err := fmt.Fprintln(w, cat.Name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
