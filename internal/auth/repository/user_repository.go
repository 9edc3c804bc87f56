package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	authdomain "zuzuplan-backend/internal/auth/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRepository persists users and their refresh tokens. Finders return
// (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *authdomain.User) error
	FindByEmail(ctx context.Context, email string) (*authdomain.User, error)
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]authdomain.User, error)
	FindByVerificationTokenHash(ctx context.Context, hash string) (*authdomain.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*authdomain.User, error)
	Search(ctx context.Context, query string, limit int) ([]authdomain.User, error)
	Update(ctx context.Context, user *authdomain.User) error

	SaveRefreshToken(ctx context.Context, token *authdomain.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteRefreshTokensByUser(ctx context.Context, userID string) error
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *authdomain.User) error {
	user.ID = uuid.New().String()
	user.Email = authdomain.NormalizeEmail(user.Email)
	return database.Conn(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*authdomain.User, error) {
	return r.findOne(ctx, "email = ?", authdomain.NormalizeEmail(email))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*authdomain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByVerificationTokenHash(ctx context.Context, hash string) (*authdomain.User, error) {
	return r.findOne(ctx, "verification_token_hash = ?", hash)
}

func (r *userRepository) FindByResetTokenHash(ctx context.Context, hash string) (*authdomain.User, error) {
	return r.findOne(ctx, "reset_token_hash = ?", hash)
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*authdomain.User, error) {
	var user authdomain.User
	err := database.Conn(ctx, r.db).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]authdomain.User, error) {
	var users []authdomain.User
	if len(ids) == 0 {
		return users, nil
	}
	err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// Search returns users whose name or email contains query, case-insensitively.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]authdomain.User, error) {
	var users []authdomain.User
	pattern := "%" + EscapeLike(strings.ToLower(query)) + "%"
	err := database.Conn(ctx, r.db).
		Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *authdomain.User) error {
	user.UpdatedAt = time.Now()
	return database.Conn(ctx, r.db).Save(user).Error
}

// SaveRefreshToken adds a token without touching the user's other devices.
// Expired tokens of the same user are cleaned up on the way.
func (r *userRepository) SaveRefreshToken(ctx context.Context, token *authdomain.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND expires_at < ?", token.UserID, time.Now()).Delete(&authdomain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *userRepository) FindRefreshToken(ctx context.Context, token string) (*authdomain.RefreshToken, error) {
	var refreshToken authdomain.RefreshToken
	err := database.Conn(ctx, r.db).Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return database.Conn(ctx, r.db).Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
}

func (r *userRepository) DeleteRefreshTokensByUser(ctx context.Context, userID string) error {
	return database.Conn(ctx, r.db).Where("user_id = ?", userID).Delete(&authdomain.RefreshToken{}).Error
}

// EscapeLike escapes the LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
