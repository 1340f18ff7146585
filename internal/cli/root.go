// Package cli defines the cobra command tree of reviewctl, the operator tool
// for accounts and businesses.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/database"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/env"
)

var flagFormat string

// RepoLoader opens the repositories a command works on.
type RepoLoader func() (*repository.Repositories, error)

// DatabaseRepos connects to the configured MySQL database.
func DatabaseRepos() (*repository.Repositories, error) {
	env.SetupEnvFile()
	database.SetupDatabase()
	return repository.NewRepositories(database.GetDB()), nil
}

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd(load RepoLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Operate a ReviewBoost installation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")

	root.AddCommand(
		newUsersCmd(load),
		newBusinessesCmd(load),
	)

	return root
}

func isJSON() bool {
	return flagFormat == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
