package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
)

func newUsersCmd(load RepoLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUsersListCmd(load), newSetRoleCmd(load))
	return cmd
}

func newUsersListCmd(load RepoLoader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := load()
			if err != nil {
				return err
			}
			return runUsersList(cmd.OutOrStdout(), repos, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of accounts")

	return cmd
}

func runUsersList(w io.Writer, repos *repository.Repositories, limit int) error {
	users, err := repos.User.List(0, limit)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(w, users)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

// Admin rights are only granted here, never through the HTTP API.
func newSetRoleCmd(load RepoLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <owner|admin>",
		Short: "Change the role of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := load()
			if err != nil {
				return err
			}
			return runSetRole(cmd.OutOrStdout(), repos, args[0], args[1])
		},
	}
}

func runSetRole(w io.Writer, repos *repository.Repositories, email, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.IsValidRole(role) {
		return fmt.Errorf("invalid role %q (owner|admin)", role)
	}
	user, err := repos.User.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no account with email %s", email)
		}
		return err
	}
	if err := repos.User.SetRole(user.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s is now %s\n", user.Email, role)
	return nil
}
