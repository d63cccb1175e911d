package main

import (
	"fmt"
	"strconv"
	"time"

	"rentdesk-backend/internal/app"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}

// storeScope turns --store into a scope; 0 means every store.
func storeScope(cmd *cobra.Command) domain.Scope {
	storeID, _ := cmd.Flags().GetInt64("store")
	if storeID == 0 {
		return domain.AllStores()
	}
	return domain.StoreScope(storeID)
}

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.DB == nil {
				return fmt.Errorf("migrate needs postgres storage, got %q", a.Config.Storage.Type)
			}
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Schema up to date.")
			return nil
		},
	}
}

func SweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark active rentals past their end date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := time.Now().UTC()
			if v, _ := cmd.Flags().GetString("today"); v != "" {
				t, err := utils.ParseDate(v)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				today = t
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Rentals.SweepOverdue(cmd.Context(), storeScope(cmd), today)
			if err != nil {
				return err
			}
			fmt.Printf("%d rental(s) marked overdue.\n", n)
			return nil
		},
	}
	cmd.Flags().String("today", "", "Sweep date as yyyy-mm-dd (default: today, UTC)")
	cmd.Flags().Int64("store", 0, "Only sweep this store (default: all stores)")
	return cmd
}

func EquipmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equipment",
		Short: "Manage equipment pools",
	}
	cmd.AddCommand(equipmentAddCmd(), equipmentResizeCmd())
	return cmd
}

func equipmentAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new equipment pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, _ := cmd.Flags().GetInt64("store")
			title, _ := cmd.Flags().GetString("title")
			total, _ := cmd.Flags().GetInt("total")
			priceStr, _ := cmd.Flags().GetString("price")
			price, err := decimal.NewFromString(priceStr)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			e := &domain.Equipment{StoreID: storeID, Title: title, QuantityTotal: total, PricePerDay: price}
			if err := a.Equipment.AddEquipment(cmd.Context(), e); err != nil {
				return err
			}
			fmt.Printf("Equipment %d created: %s, %d unit(s) at %s/day.\n", e.ID, e.Title, e.QuantityTotal, e.PricePerDay)
			return nil
		},
	}
	cmd.Flags().Int64("store", 0, "Owning store id")
	cmd.Flags().String("title", "", "Equipment title")
	cmd.Flags().Int("total", 0, "Number of units owned")
	cmd.Flags().String("price", "0", "Default price per day")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func equipmentResizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize <equipment-id>",
		Short: "Change the number of units a pool owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid equipment id %q", args[0])
			}
			total, _ := cmd.Flags().GetInt("total")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.Equipment.ResizeTotal(cmd.Context(), id, storeScope(cmd), total)
			if err != nil {
				return err
			}
			fmt.Printf("Equipment %d: %d total, %d available.\n", e.ID, e.QuantityTotal, e.QuantityAvailable)
			return nil
		},
	}
	cmd.Flags().Int("total", 0, "New total unit count")
	cmd.Flags().Int64("store", 0, "Owning store id (default: any store)")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

// TokenCmd issues an access token signed with the configured secret.
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			storeID, _ := cmd.Flags().GetInt64("store")
			role, _ := cmd.Flags().GetString("role")

			p := domain.Principal{UserID: userID, StoreID: storeID, Role: domain.Role(role)}
			if !p.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if p.Role != domain.RoleSuperAdmin && storeID <= 0 {
				return fmt.Errorf("--store is required for role %s", role)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tokens := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
			tok, err := tokens.GenerateAccessToken(p)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().Int64("user", 0, "User id")
	cmd.Flags().Int64("store", 0, "Store id (not needed for superadmin)")
	cmd.Flags().String("role", string(domain.RoleStaff), "superadmin, store_admin, staff or viewer")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
