package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"sosstock/internal/auth"
	"sosstock/internal/config"
	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/metrics"
	"sosstock/internal/model"
	"sosstock/internal/repository"
	"sosstock/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

var _ TokenStore = (*auth.Store)(nil)

// TokenStore keeps revoked token ids and single-use reset tokens.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PutResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	TakeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

// EmailQueue hands emails to the background workers.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, job worker.EmailJob) error
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, accessTokenID string, refreshToken string) error
	Session(sess auth.Session) *dto.SessionResponse
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error
	UpdatePassword(ctx context.Context, p *model.Profile, req dto.UpdatePasswordRequest) error
	UpdateProfile(ctx context.Context, p *model.Profile, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

type authService struct {
	repo    repository.ProfileRepository
	issuer  *auth.Issuer
	tokens  TokenStore
	emails  EmailQueue
	cfg     *config.Config
	metrics *metrics.Metrics
}

func NewAuthService(
	repo repository.ProfileRepository,
	issuer *auth.Issuer,
	tokens TokenStore,
	emails EmailQueue,
	cfg *config.Config,
	m *metrics.Metrics,
) AuthService {
	return &authService{repo: repo, issuer: issuer, tokens: tokens, emails: emails, cfg: cfg, metrics: m}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	p, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.metrics.AuthAttempt("rejected")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.AuthAttempt("rejected")
		return nil, ErrInvalidCredentials
	}
	s.metrics.AuthAttempt("success")
	return s.issuePair(p)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.issuer.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	p, err := s.repo.FindByID(ctx, claims.ProfileID())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	// Refresh tokens rotate: only the first request to claim the presented
	// one gets a new pair.
	claimed, err := s.tokens.Claim(ctx, claims.ID, claims.Remaining(time.Now()))
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrInvalidToken
	}
	return s.issuePair(p)
}

func (s *authService) issuePair(p *model.Profile) (*dto.LoginResponse, error) {
	access, _, err := s.issuer.Issue(p, auth.KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.issuer.Issue(p, auth.KindRefresh)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.issuer.AccessTTL().Seconds()),
		User:         profileResponse(p),
	}, nil
}

// Logout deny-lists the access token for its maximum lifetime and, when
// given, the refresh token for its remaining one.
func (s *authService) Logout(ctx context.Context, accessTokenID string, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, accessTokenID, s.issuer.AccessTTL()); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.issuer.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil
	}
	return s.tokens.Revoke(ctx, claims.ID, claims.Remaining(time.Now()))
}

func (s *authService) Session(sess auth.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		Status:  string(sess.Status),
		Profile: profileResponse(sess.Profile),
		IsAdmin: sess.Role() == domain.RoleAdmin,
	}
}

// ForgotPassword emails a reset link. Unknown addresses succeed silently so
// the endpoint cannot be used to probe for accounts.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	p, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	ttl := time.Duration(s.cfg.ResetTokenMinutes) * time.Minute
	if err := s.tokens.PutResetToken(ctx, token, p.ID, ttl); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, token)
	job := worker.EmailJob{
		To:      p.Email,
		Subject: s.cfg.CompanyName + ": reset your password",
		Text: fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in %d minutes.\n\n%s\n",
			p.DisplayName(), s.cfg.ResetTokenMinutes, link),
	}
	if err := s.emails.EnqueueEmail(ctx, job); err != nil {
		return fmt.Errorf("enqueue reset email: %w", err)
	}
	log.Info().Str("profile_id", p.ID.String()).Msg("auth: password reset requested")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	id, err := s.tokens.TakeResetToken(ctx, req.Token)
	if errors.Is(err, auth.ErrResetTokenNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}
	return notFound("profile", s.repo.UpdatePassword(ctx, id, string(hash)))
}

func (s *authService) UpdatePassword(ctx context.Context, p *model.Profile, req dto.UpdatePasswordRequest) error {
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fieldError("current_password", "Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, p.ID, string(hash))
}

func (s *authService) UpdateProfile(ctx context.Context, p *model.Profile, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	updated := *p
	if req.FullName != nil {
		updated.FullName = req.FullName
	}
	if req.AvatarURL != nil {
		updated.AvatarURL = req.AvatarURL
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	resp := profileResponse(&updated)
	return &resp, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
