package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	TotalUsers     = 50
	RoomCount      = 5
	UsersPerRoom   = 10
	UsernamePrefix = "dev_"
)

// userUpserter is the slice of the repository the seeder needs for
// users.
type userUpserter interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

func main() {
	log.Println("Starting seeder for CodeRooms Stats Backend...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize PostgreSQL
	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	postgresRepo := repository.NewPostgresRepository(db)

	// Run migrations
	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()

	log.Printf("Generating %d users...", TotalUsers)
	users := generateUsers(TotalUsers)

	log.Println("Upserting users into PostgreSQL...")
	if err := seedUsers(ctx, postgresRepo, users); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Printf("Creating %d rooms...", RoomCount)
	for i := 0; i < RoomCount; i++ {
		room := generateRoom(i, users)

		// Room codes are stable across runs, so rerunning the seeder
		// skips rooms that already exist instead of tripping the
		// unique code index.
		if _, err := postgresRepo.GetRoomByCode(ctx, room.Code); err == nil {
			log.Printf("   Room %s already seeded, skipping", room.Code)
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatalf("Failed to check room %s: %v", room.Code, err)
		}

		if err := postgresRepo.CreateRoom(ctx, room); err != nil {
			log.Fatalf("Failed to create room %s: %v", room.Name, err)
		}
		log.Printf("   Room %q (%s) with %d participants", room.Name, room.Code, len(room.Participants))
	}

	postgresRepo.Close()
	log.Println("Seeder finished!")
}

// seedUsers upserts each user keyed by username, so rerunning the
// seeder refreshes linked profiles instead of failing on the unique
// username index.
func seedUsers(ctx context.Context, store userUpserter, users []models.User) error {
	for i := range users {
		if err := store.UpsertUser(ctx, &users[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", users[i].Username, err)
		}
	}
	return nil
}

// generateUsers creates demo users with plausible linked usernames.
// Every third user has no LeetCode profile so the unlinked path gets
// exercised.
func generateUsers(count int) []models.User {
	users := make([]models.User, count)

	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", UsernamePrefix, i+1)

		leetcodeUsername := username
		if i%3 == 2 {
			leetcodeUsername = ""
		}

		users[i] = models.User{
			ID:               uuid.NewString(),
			Username:         username,
			GitHubUsername:   username,
			LeetCodeUsername: leetcodeUsername,
		}
	}

	return users
}

// generateRoom builds one active room with a random weight split and a
// contiguous slice of users as participants
func generateRoom(index int, users []models.User) *models.Room {
	weightGitHub := 0.3 + rand.Float64()*0.4 //nolint:gosec // demo data

	room := &models.Room{
		ID:             uuid.NewString(),
		Code:           fmt.Sprintf("ROOM%04d", index+1),
		Name:           fmt.Sprintf("Practice Room %d", index+1),
		Status:         models.RoomStatusActive,
		WeightGitHub:   weightGitHub,
		WeightLeetCode: 1 - weightGitHub,
	}

	start := (index * UsersPerRoom) % len(users)
	for i := 0; i < UsersPerRoom; i++ {
		user := users[(start+i)%len(users)]
		room.Participants = append(room.Participants, models.RoomParticipant{
			RoomID:           room.ID,
			UserID:           user.ID,
			DisplayName:      user.Username,
			GitHubUsername:   user.GitHubUsername,
			LeetCodeUsername: user.LeetCodeUsername,
			IsActive:         true,
		})
	}

	return room
}

// initPostgres initializes PostgreSQL connection
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}
