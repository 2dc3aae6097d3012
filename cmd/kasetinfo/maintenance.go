package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kasetinfo/internal/models"
	"kasetinfo/internal/sitemap"
	"kasetinfo/internal/store"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write sitemap.xml from the current items",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		baseURL, _ := cmd.Flags().GetString("base-url")
		if baseURL == "" {
			baseURL = cfg.SiteURL
		}
		out, _ := cmd.Flags().GetString("out")

		res, err := sitemap.Build(cmd.Context(), baseURL, store.NewItemStore(db), time.Now())
		if err != nil {
			return err
		}

		if out == "-" {
			_, err = os.Stdout.Write(res.Body)
			return err
		}
		if err := os.WriteFile(out, res.Body, 0o644); err != nil {
			return fmt.Errorf("writing sitemap: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d URLs to %s\n", res.URLs, out)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage admin accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email> <password>",
	Short: "Create an admin account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		if role != string(models.RoleAdmin) && role != string(models.RoleEditor) {
			return fmt.Errorf("unknown role %q", role)
		}
		email := strings.ToLower(strings.TrimSpace(args[0]))
		if name == "" {
			name = email
		}

		u, err := store.NewUserStore(db).Create(cmd.Context(), email, args[1], name, models.Role(role))
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List admin accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := store.NewUserStore(db).List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tNAME\tROLE\t2FA\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", u.Email, u.DisplayName, u.Role, u.TOTPEnabled, u.CreatedAt.Format(time.DateOnly))
		}
		return w.Flush()
	},
}

var userResetTwoFACmd = &cobra.Command{
	Use:   "reset-2fa <email>",
	Short: "Clear a user's two-factor enrolment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users := store.NewUserStore(db)
		u, err := users.FindByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(args[0])))
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("no user with email %q", args[0])
		}
		if err := users.ResetTOTP(cmd.Context(), u.ID); err != nil {
			return err
		}
		fmt.Printf("Two-factor authentication reset for %s\n", u.Email)
		return nil
	},
}
