package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/model"
)

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register [email]",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			in := bufio.NewReader(cmd.InOrStdin())

			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = prompt(in, cmd.ErrOrStderr(), "Password: ")
			}
			repeat := prompt(in, cmd.ErrOrStderr(), "Repeat password: ")

			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				err := a.sessions.Register(cmd.Context(), model.Registration{
					Name:            name,
					Email:           args[0],
					Password:        password,
					ConfirmPassword: repeat,
				})
				if err != nil {
					return fmt.Errorf("register: %s", appErrors.UserMessage(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run: tasktracker login", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringP("name", "n", "", "Display name")
	cmd.Flags().StringP("password", "p", "", "Password (prompted when empty)")

	return cmd
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = prompt(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), "Password: ")
			}

			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				a.tasks.Reset()
				a.categories.Reset()
				session, err := a.sessions.Login(cmd.Context(), args[0], password)
				if err != nil {
					return fmt.Errorf("login: %s", appErrors.UserMessage(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", session.User.Name, session.User.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringP("password", "p", "", "Password (prompted when empty)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				a.tasks.Reset()
				a.categories.Reset()
				if err := a.sessions.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cmd.ErrOrStderr(), func(a *app) error {
				session := a.sessions.Current()
				if !session.Active() {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", session.User.Name, session.User.Email, session.User.ID)
				return nil
			})
		},
	}
}

// prompt writes label to out and reads one line from in.
func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	answer := strings.ToLower(strings.TrimSpace(prompt(in, out, question+" [y/N] ")))
	return answer == "y" || answer == "yes"
}
