// seed wipes the local database and loads an admin, five donors and a few
// donations each.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/infrastructure/postgres"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@bloodbank.com"
	adminPassword = "admin123"
	donorPassword = "password123"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := postgres.MigrateUp(dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	identities := postgres.NewIdentityRepository(pool)
	donations := postgres.NewDonationRepository(pool)

	if err := identities.DeleteAll(ctx); err != nil {
		log.Fatalf("clear: %v", err)
	}
	fmt.Println("Cleared existing data")

	admin := &domain.Identity{
		Name:      "Admin User",
		Email:     adminEmail,
		BloodType: "O+",
		Phone:     "1234567890",
		Age:       30,
		Address:   "123 Admin Street",
		Role:      domain.RoleAdmin,
		Verified:  true,
	}
	if _, err := create(ctx, identities, admin, adminPassword); err != nil {
		log.Fatalf("create admin: %v", err)
	}

	now := time.Now()
	var recorded int
	for i := 1; i <= 5; i++ {
		donor, err := create(ctx, identities, &domain.Identity{
			Name:      fmt.Sprintf("Donor %d", i),
			Email:     fmt.Sprintf("donor%d@example.com", i),
			BloodType: domain.BloodTypes[i%len(domain.BloodTypes)],
			Phone:     fmt.Sprintf("555000%d000", i),
			Age:       25 + i,
			Address:   fmt.Sprintf("%d00 Donor Avenue", i),
			Role:      domain.RoleDonor,
			Verified:  true,
		}, donorPassword)
		if err != nil {
			log.Fatalf("create donor %d: %v", i, err)
		}

		for j := range 3 {
			status := domain.StatusDonated
			if j%2 == 1 {
				status = domain.StatusReceived
			}
			note := fmt.Sprintf("Sample donation %d", j+1)
			_, err := donations.Create(ctx, &domain.DonationRecord{
				IdentityID: donor.ID,
				BloodType:  donor.BloodType,
				Quantity:   350 + j*50,
				Status:     status,
				EventDate:  now.AddDate(0, 0, -7*j),
				Note:       &note,
			})
			if err != nil {
				log.Fatalf("create donation: %v", err)
			}
			recorded++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Donors:     5\n")
	fmt.Printf("  Donations:  %d\n", recorded)
	fmt.Println()
	fmt.Println("Login credentials:")
	fmt.Printf("  Admin: %s / %s\n", adminEmail, adminPassword)
	fmt.Printf("  Donor: donor1@example.com / %s\n", donorPassword)
}

func create(ctx context.Context, repo *postgres.IdentityRepository, i *domain.Identity, password string) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	i.PasswordHash = string(hash)
	return repo.Create(ctx, i)
}
