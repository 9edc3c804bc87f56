package usecase

import (
	"context"

	authdomain "zuzuplan-backend/internal/auth/domain"
	authdto "zuzuplan-backend/internal/auth/dto"
)

// AuthUsecase covers credentials, sessions and account recovery.
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*authdto.AccessTokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ValidateToken(ctx context.Context, accessToken string) (*authdomain.User, error)
}

// UserUsecase covers profiles, user lookup and push devices.
type UserUsecase interface {
	GetProfile(ctx context.Context, userID string) (*authdomain.User, error)
	UpdateProfile(ctx context.Context, userID string, req *authdto.UpdateProfileRequest) (*authdomain.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (*authdomain.User, error)
	GetUserByID(ctx context.Context, userID string) (*authdto.PublicUser, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]authdto.PublicUser, error)
	RegisterDevice(ctx context.Context, userID string, req *authdto.RegisterDeviceRequest) error
	UnregisterDevice(ctx context.Context, userID, token string) error
}
