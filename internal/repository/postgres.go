package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = fmt.Errorf("record not found")

// PostgresRepository handles all PostgreSQL operations. It implements
// the Room Store and User Store contracts consumed by the service layer.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetRoom retrieves a room with its participants
func (r *PostgresRepository) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Preload("Participants").Where("id = ?", roomID).First(&room).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
		}
		return nil, err
	}
	return &room, nil
}

// RoomsForUser retrieves every room where the user is an active participant
func (r *PostgresRepository) RoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN room_participants ON room_participants.room_id = rooms.id").
		Where("room_participants.user_id = ? AND room_participants.is_active", userID).
		Find(&rooms).Error
	return rooms, err
}

// StaleRoomIDs returns rooms whose participants have not had a stats
// refresh since the cutoff (used by the background refresher)
func (r *PostgresRepository) StaleRoomIDs(ctx context.Context, olderThan time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.RoomParticipant{}).
		Distinct("room_id").
		Where("is_active AND (stats_last_updated IS NULL OR stats_last_updated < ?)", olderThan).
		Pluck("room_id", &ids).Error
	return ids, err
}

// SaveParticipant persists one participant's mutated state
func (r *PostgresRepository) SaveParticipant(ctx context.Context, p *models.RoomParticipant) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// CreateRoom inserts a room together with its participants
func (r *PostgresRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetUser retrieves a user by id
func (r *PostgresRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// SaveUser persists a user's linked profile usernames
func (r *PostgresRepository) SaveUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// GetRoomByCode retrieves a room by its join code
func (r *PostgresRepository) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("room code %s: %w", code, ErrNotFound)
		}
		return nil, err
	}
	return &room, nil
}

// UpsertUser creates or updates a user keyed by username
// Uses ON CONFLICT to handle upserts efficiently
func (r *PostgresRepository) UpsertUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"github_username", "leetcode_username", "updated_at"}),
	}).Create(user).Error
}

// Ping checks if database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.User{}, &models.Room{}, &models.RoomParticipant{})
}
