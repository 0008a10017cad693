package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/campaign-portal/internal"
	authpg "github.com/frahmantamala/campaign-portal/internal/auth/postgres"
	campaignDatamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/campaign"
	userDatamodel "github.com/frahmantamala/campaign-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/campaign-portal/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the local backend database with users and campaigns for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configDir)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

		sqlxDB, err := initDB(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := initGorm(sqlxDB.DB, lg)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"donation_attempts", "expense_files", "expenses", "campaigns", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		cost := cfg.Security.BCryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		users := authpg.NewRepository(db)
		seedUsers := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"admin@example.com", "Portal Admin", internal.RoleAdmin},
			{"donor@example.com", "Donor", internal.RoleUser},
		}
		for _, u := range seedUsers {
			var existing userDatamodel.User
			if err := db.WithContext(ctx).Where("email = ?", u.Email).First(&existing).Error; err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}
			user := &userDatamodel.User{ID: uuid.NewString(), Email: u.Email, Name: u.Name, Role: u.Role}
			if err := users.CreateUser(ctx, user, "password", cost); err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		vault := uuid.NewString()
		campaigns := []campaignDatamodel.Campaign{
			{Slug: "winter-clothes", Title: "Winter clothes", Description: "Warm clothes for children in shelters", DefaultVault: &vault, TargetAmount: 500000},
			{Slug: "school-supplies", Title: "School supplies", Description: "Books and supplies for the new school year", DefaultVault: &vault, TargetAmount: 250000},
			{Slug: "animal-shelter", Title: "Animal shelter", Description: "Food and vet care for rescued animals", TargetAmount: 300000},
			{Slug: "library-books", Title: "Library books", Description: "New books for the village library", DefaultVault: &vault, TargetAmount: 120000},
			{Slug: "clean-river", Title: "Clean river", Description: "Volunteer clean-up of the river banks", DefaultVault: &vault, TargetAmount: 80000},
			{Slug: "sports-field", Title: "Sports field", Description: "Repairing the school sports field", DefaultVault: &vault, TargetAmount: 900000},
		}
		for _, c := range campaigns {
			if err := seedCampaign(ctx, db, c); err != nil {
				log.Fatalf("failed to seed campaign %s: %v", c.Slug, err)
			}
			fmt.Printf("Seeded campaign: %s\n", c.Slug)
		}

		fmt.Println("Campaigns seeded successfully")
	},
}

func seedCampaign(ctx context.Context, db *gorm.DB, c campaignDatamodel.Campaign) error {
	c.ID = uuid.NewString()
	c.State = "active"
	c.Currency = "BGN"
	return db.WithContext(ctx).
		Where(campaignDatamodel.Campaign{Slug: c.Slug}).
		Attrs(c).
		FirstOrCreate(&campaignDatamodel.Campaign{}).Error
}
