package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmstats-go/internal/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List fetched users and their edit counts",
	Run:   runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPostgres(ctx, cfg)
	if err != nil {
		exitWithError("Failed to connect to PostgreSQL", err)
	}
	defer db.Close()

	users, err := db.ListUsers(ctx)
	if err != nil {
		exitWithError("Failed to list users", err)
	}

	if len(users) == 0 {
		fmt.Println("No users fetched yet")
		return
	}

	fmt.Printf("%-30s %12s\n", "USER", "EDITS")
	for _, u := range users {
		fmt.Printf("%-30s %12d\n", u.Username, u.Edits)
	}
}
