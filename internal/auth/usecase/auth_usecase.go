package usecase

import (
	"context"
	"time"

	authdomain "zuzuplan-backend/internal/auth/domain"
	authdto "zuzuplan-backend/internal/auth/dto"
	"zuzuplan-backend/internal/auth/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/mailer"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

// AuthOptions carries the settings the auth flows depend on.
type AuthOptions struct {
	RequireEmailVerification bool
	FrontendURL              string
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	mail     mailer.Sender
	opts     AuthOptions
	logger   *zap.Logger
	refresh  singleflight.Group
	now      func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, tokens *TokenIssuer, mail mailer.Sender, opts AuthOptions, logger *zap.Logger) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		mail:     mail,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *authUsecase) Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("User with this email already exists")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	verificationToken, verificationHash, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	expires := u.now().Add(verificationTokenTTL)

	user := &authdomain.User{
		Email:                 req.Email,
		Password:              hashedPassword,
		Name:                  req.Name,
		VerificationTokenHash: &verificationHash,
		VerificationExpiresAt: &expires,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Registration succeeds even when the email cannot be queued.
	if err := u.mail.Send(ctx, mailer.VerificationEmail(user.Email, u.opts.FrontendURL, verificationToken)); err != nil {
		u.logger.Warn("failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
	}

	return u.generateTokens(ctx, user)
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, apperror.Unauthenticated("Invalid email or password")
	}
	if u.opts.RequireEmailVerification && !user.EmailVerified {
		return nil, apperror.AccessDenied("Please verify your email before logging in")
	}

	return u.generateTokens(ctx, user)
}

// RefreshToken exchanges a refresh token for a new access token. Concurrent
// refreshes of the same token share one lookup, which runs detached from the
// first caller's cancellation so the others are not failed by it.
func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*authdto.AccessTokenResponse, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := u.refresh.Do(refreshToken, func() (interface{}, error) {
		return u.refreshAccessToken(shared, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*authdto.AccessTokenResponse), nil
}

func (u *authUsecase) refreshAccessToken(ctx context.Context, refreshToken string) (*authdto.AccessTokenResponse, error) {
	invalid := apperror.Unauthenticated("Invalid or expired refresh token")

	claims, err := u.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, invalid
	}

	stored, err := u.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.UserID != claims.UserID || !stored.ExpiresAt.After(u.now()) {
		return nil, invalid
	}

	user, err := u.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}

	accessToken, err := u.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	return &authdto.AccessTokenResponse{AccessToken: accessToken}, nil
}

func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return u.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (u *authUsecase) VerifyEmail(ctx context.Context, token string) error {
	invalid := apperror.Validation("Invalid or expired verification token")

	user, err := u.userRepo.FindByVerificationTokenHash(ctx, hashToken(token))
	if err != nil {
		return err
	}
	if user == nil {
		return invalid
	}
	if user.EmailVerified {
		return apperror.Validation("Email already verified")
	}
	if user.VerificationExpiresAt != nil && user.VerificationExpiresAt.Before(u.now()) {
		return invalid
	}

	user.EmailVerified = true
	user.VerificationTokenHash = nil
	user.VerificationExpiresAt = nil
	return u.userRepo.Update(ctx, user)
}

// ForgotPassword never reveals whether the address is registered.
func (u *authUsecase) ForgotPassword(ctx context.Context, email string) error {
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	resetToken, resetHash, err := newOpaqueToken()
	if err != nil {
		return err
	}
	expires := u.now().Add(resetTokenTTL)
	user.ResetTokenHash = &resetHash
	user.ResetExpiresAt = &expires
	if err := u.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := u.mail.Send(ctx, mailer.PasswordResetEmail(user.Email, u.opts.FrontendURL, resetToken)); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (u *authUsecase) ResetPassword(ctx context.Context, token, password string) error {
	user, err := u.userRepo.FindByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		return err
	}
	if user == nil || user.ResetExpiresAt == nil || !user.ResetExpiresAt.After(u.now()) {
		return apperror.Validation("Invalid or expired reset token")
	}

	hashedPassword, err := repository.HashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	user.ResetTokenHash = nil
	user.ResetExpiresAt = nil
	if err := u.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// Every session ends once the password changes.
	return u.userRepo.DeleteRefreshTokensByUser(ctx, user.ID)
}

func (u *authUsecase) ValidateToken(ctx context.Context, accessToken string) (*authdomain.User, error) {
	claims, err := u.tokens.Parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, apperror.Unauthenticated("Invalid or expired token")
	}

	user, err := u.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthenticated("User not found")
	}
	return user, nil
}

func (u *authUsecase) generateTokens(ctx context.Context, user *authdomain.User) (*authdto.TokenResponse, error) {
	accessToken, err := u.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := u.tokens.IssueRefresh(user)
	if err != nil {
		return nil, err
	}

	if err := u.userRepo.SaveRefreshToken(ctx, &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
