package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eventhub/internal/config"
	"eventhub/internal/db"
	"eventhub/internal/model"
	"eventhub/internal/repository"
)

var departmentNames = []string{
	"Engineering",
	"Product",
	"Marketing",
	"Human Resources",
	"Finance",
}

func main() {
	log.Println("Starting seed script...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(
		&model.Department{},
		&model.User{},
		&model.Event{},
		&model.EventParticipant{},
		&model.Notification{},
		&model.Feedback{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	departmentRepo := repository.NewDepartmentRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	// Seed departments
	for _, name := range departmentNames {
		department := &model.Department{Name: name}
		if err := departmentRepo.FirstOrCreate(ctx, department); err != nil {
			log.Fatalf("Failed to seed department %q: %v", name, err)
		}
	}
	log.Printf("Seeded %d departments", len(departmentNames))

	// Seed the initial admin account with a local password hash
	adminEmail := model.CanonicalEmail(getEnv("SEED_ADMIN_EMAIL", "admin@eventhub.local"))
	adminPassword := getEnv("SEED_ADMIN_PASSWORD", "ChangeMe123!")

	existing, err := userRepo.FindByEmail(ctx, adminEmail)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to check admin account: %v", err)
	}
	if existing != nil {
		log.Printf("Admin account %s already exists, skipping", adminEmail)
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 12)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		admin := &model.User{
			Email:        adminEmail,
			FullName:     "EventHub Admin",
			PasswordHash: string(hash),
			IsActive:     true,
			IsAdmin:      true,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			log.Fatalf("Failed to create admin account: %v", err)
		}
		log.Printf("Created admin account %s", adminEmail)
	}

	log.Println("Seed completed successfully!")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
