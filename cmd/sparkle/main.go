package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"Sparkle/internal/auth"
	"Sparkle/internal/cache"
	"Sparkle/internal/calc/solar"
	"Sparkle/internal/config"
	"Sparkle/internal/repo"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sparkle",
		Short:        "Solar Sparkle operator tools",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(grantAdminCmd())
	rootCmd.AddCommand(leadsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func estimateCmd() *cobra.Command {
	var (
		bill         float64
		propertyType string
		roof         float64
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Size a rooftop system and estimate its savings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in solar.PartialInput
			if cmd.Flags().Changed("bill") {
				in.MonthlyBill = &bill
			}
			if pt, ok := solar.ParsePropertyType(propertyType); ok {
				in.PropertyType = &pt
			}
			if cmd.Flags().Changed("roof") {
				in.RoofArea = &roof
			}

			res, errs := solar.Calculate(in)
			if len(errs) > 0 {
				printValidationErrors(cmd.ErrOrStderr(), errs)
				return errs
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printEstimate(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&bill, "bill", "b", 0, "average monthly electricity bill in INR")
	cmd.Flags().StringVarP(&propertyType, "type", "t", string(solar.Residential), "property type: residential, commercial or industrial")
	cmd.Flags().Float64VarP(&roof, "roof", "r", 0, "usable roof area in sq ft (omit for no limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func openRepo(tc config.Tools) (*repo.SQLRepository, *sql.DB, error) {
	db, err := repo.Open(tc.DBDriver, tc.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Migrate(db, tc.DBDriver); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo.New(db, tc.DBDriver), db, nil
}

func grantAdminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "grant-admin [login]",
		Short: "Make an account an administrator (or a plain user with --revoke)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := config.LoadTools()
			if err != nil {
				return err
			}
			r, db, err := openRepo(tc)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			id, _, err := r.GetBylogin(ctx, args[0])
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("no account with login %q", args[0])
			}
			if err != nil {
				return err
			}

			roles := &auth.RoleService{Repo: r}
			if tc.RedisAddr != "" {
				rc := cache.NewRedisCache(tc.RedisAddr)
				defer rc.Close()
				roles.Cache = rc
			}

			role := repo.RoleAdmin
			if revoke {
				role = repo.RoleUser
			}
			if err := roles.Grant(ctx, id, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d) is now %s\n", args[0], id, role)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "demote the account to a plain user")
	return cmd
}

func leadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect and triage submitted leads",
	}
	cmd.AddCommand(leadsListCmd())
	cmd.AddCommand(leadsStatusCmd())
	return cmd
}

func leadsListCmd() *cobra.Command {
	var (
		kind   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads of one kind, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, ok := repo.ParseKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q: want consultancy, partner or amc", kind)
			}
			tc, err := config.LoadTools()
			if err != nil {
				return err
			}
			r, db, err := openRepo(tc)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := r.ListLeads(context.Background(), k)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printLeads(cmd.OutOrStdout(), list)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(repo.KindConsultancy), "consultancy, partner or amc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the leads as JSON")
	return cmd
}

func leadsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Set the triage status of a lead",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid lead id %q", args[0])
			}
			status, ok := repo.NormalizeStatus(args[1])
			if !ok {
				return fmt.Errorf("status must be 1 to %d characters", repo.MaxStatusLen)
			}

			tc, err := config.LoadTools()
			if err != nil {
				return err
			}
			r, db, err := openRepo(tc)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := r.UpdateLeadStatus(context.Background(), id, status); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("no lead #%d", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lead #%d is now %s\n", id, status)
			return nil
		},
	}
}
