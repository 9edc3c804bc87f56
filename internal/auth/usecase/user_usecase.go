package usecase

import (
	"context"
	"sort"
	"strings"

	authdomain "zuzuplan-backend/internal/auth/domain"
	authdto "zuzuplan-backend/internal/auth/dto"
	"zuzuplan-backend/internal/auth/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/fuzzy"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	// Candidates are widened with this many leading runes so typos in the
	// rest of the query still reach the fuzzy ranking.
	searchStemRunes = 3
)

type userUsecase struct {
	userRepo repository.UserRepository
	fcmRepo  repository.FCMTokenRepository
}

func NewUserUsecase(userRepo repository.UserRepository, fcmRepo repository.FCMTokenRepository) UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
		fcmRepo:  fcmRepo,
	}
}

func (u *userUsecase) GetProfile(ctx context.Context, userID string) (*authdomain.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

func (u *userUsecase) UpdateProfile(ctx context.Context, userID string, req *authdto.UpdateProfileRequest) (*authdomain.User, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if req.Email != nil {
		email := authdomain.NormalizeEmail(*req.Email)
		if email != user.Email {
			existing, err := u.userRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, apperror.Conflict("Email already in use")
			}
			user.Email = email
			// A new address has to be verified again.
			user.EmailVerified = false
		}
	}

	if req.Password != nil && *req.Password != "" {
		hashed, err := repository.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUsecase) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*authdomain.User, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = avatarURL
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUsecase) GetUserByID(ctx context.Context, userID string) (*authdto.PublicUser, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := authdto.ToPublicUser(user)
	return &public, nil
}

// SearchUsers finds people to invite, ranked by fuzzy relevance.
func (u *userUsecase) SearchUsers(ctx context.Context, query string, limit int) ([]authdto.PublicUser, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("Search query is required")
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	candidates, err := u.userRepo.Search(ctx, query, maxSearchLimit)
	if err != nil {
		return nil, err
	}
	if stem := []rune(query); len(stem) > searchStemRunes {
		more, err := u.userRepo.Search(ctx, string(stem[:searchStemRunes]), maxSearchLimit)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, more...)
	}

	type scored struct {
		user  authdomain.User
		score float64
	}
	seen := make(map[string]bool, len(candidates))
	var ranked []scored
	for _, c := range candidates {
		if seen[c.ID] || !fuzzy.MatchPerson(query, c.Name, c.Email) {
			continue
		}
		seen[c.ID] = true
		ranked = append(ranked, scored{user: c, score: fuzzy.PersonScore(query, c.Name, c.Email)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	result := make([]authdto.PublicUser, 0, limit)
	for i := 0; i < len(ranked) && i < limit; i++ {
		result = append(result, authdto.ToPublicUser(&ranked[i].user))
	}
	return result, nil
}

func (u *userUsecase) RegisterDevice(ctx context.Context, userID string, req *authdto.RegisterDeviceRequest) error {
	return u.fcmRepo.SaveToken(ctx, userID, req.Token, req.DeviceInfo)
}

func (u *userUsecase) UnregisterDevice(ctx context.Context, userID, token string) error {
	return u.fcmRepo.DeleteUserToken(ctx, userID, token)
}
