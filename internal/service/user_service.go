package service

import (
	"context"
	"errors"
	"fmt"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/model"
	"sosstock/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService is the admin view of profiles.
type UserService interface {
	List(ctx context.Context) ([]dto.ProfileResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.ProfileResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.ProfileResponse, error)
}

type userService struct {
	repo repository.ProfileRepository
}

func NewUserService(repo repository.ProfileRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) List(ctx context.Context) ([]dto.ProfileResponse, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProfileResponse, len(profiles))
	for i := range profiles {
		out[i] = profileResponse(&profiles[i])
	}
	return out, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	resp := profileResponse(p)
	return &resp, nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.ProfileResponse, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, fieldError("role", "Role must be admin or operator")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	p := &model.Profile{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}
	resp := profileResponse(p)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.ProfileResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	if req.FullName != nil {
		p.FullName = req.FullName
	}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			return nil, fieldError("role", "Role must be admin or operator")
		}
		p.Role = role
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := profileResponse(p)
	return &resp, nil
}
