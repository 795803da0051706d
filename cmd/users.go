package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/config"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a registered user",
	Long: `Delete a registered user and their face template.
Attendance records of the user are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	usersListCmd.Flags().String("query", "", "Only list users whose name contains this text")
	usersDeleteCmd.Flags().Bool("dry-run", false, "Show the user that would be deleted without deleting")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, config.Load(), zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	users := a.roster.List(mustGetString(cmd, "query"))
	if len(users) == 0 {
		fmt.Println("No users registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER ID\tNAME\tREGISTERED\tPASSWORD")
	for _, u := range users {
		password := "no"
		if u.HasPassword {
			password = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.RegisteredAt.Format(time.DateTime), password)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d users\n", len(users))
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, config.Load(), zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	if mustGetBool(cmd, "dry-run") {
		u, ok := a.roster.Get(id)
		if !ok {
			return fmt.Errorf("user %s not found", id)
		}
		fmt.Printf("[DRY-RUN] Would delete %s (%s)\n", u.Name, u.ID)
		return nil
	}

	u, err := a.roster.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	fmt.Printf("User %s deleted\n", u.Name)
	return nil
}
