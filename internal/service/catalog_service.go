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
	"gorm.io/gorm"
)

// writeConflict maps unique and foreign-key violations on catalog writes to
// ErrConflict.
func writeConflict(what string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s is still referenced: %w", what, ErrConflict)
	}
	return notFound(what, err)
}

// ─── Categories ──────────────────────────────────────────────────────────────

type CategoryService interface {
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, len(cats))
	for i := range cats {
		out[i] = categoryResponse(&cats[i])
	}
	return out, nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c := &model.Category{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, writeConflict("category", err)
	}
	resp := categoryResponse(c)
	return &resp, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("category", err)
	}
	c.Name = req.Name
	c.Description = req.Description
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, writeConflict("category", err)
	}
	resp := categoryResponse(c)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return writeConflict("category", s.repo.Delete(ctx, id))
}

// ─── Locations ───────────────────────────────────────────────────────────────

type LocationService interface {
	List(ctx context.Context) ([]dto.LocationSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.LocationDetailResponse, error)
	Create(ctx context.Context, req dto.LocationRequest) (*dto.LocationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.LocationRequest) (*dto.LocationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type locationService struct {
	repo      repository.LocationRepository
	inventory repository.InventoryRepository
	cache     DashboardInvalidator
}

func NewLocationService(
	repo repository.LocationRepository,
	inventory repository.InventoryRepository,
	cache DashboardInvalidator,
) LocationService {
	return &locationService{repo: repo, inventory: inventory, cache: cache}
}

// List returns every active location with its largest stock rows.
func (s *locationService) List(ctx context.Context) ([]dto.LocationSummary, error) {
	locs, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	items, err := s.inventory.ListStock(ctx, nil)
	if err != nil {
		return nil, err
	}
	summaries, _ := locationSummaries(locs, items)
	return summaries, nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*dto.LocationDetailResponse, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("location", err)
	}
	items, err := s.inventory.ListStock(ctx, &id)
	if err != nil {
		return nil, err
	}
	rows, lines, status := stockRows(items)
	return &dto.LocationDetailResponse{
		Location:    locationResponse(loc),
		Inventory:   rows,
		TotalItems:  domain.Totals(lines).TotalItems,
		StockStatus: string(status),
	}, nil
}

func (s *locationService) Create(ctx context.Context, req dto.LocationRequest) (*dto.LocationResponse, error) {
	l := &model.Location{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, writeConflict("location", err)
	}
	s.cache.InvalidateDashboard(ctx)
	resp := locationResponse(l)
	return &resp, nil
}

func (s *locationService) Update(ctx context.Context, id uuid.UUID, req dto.LocationRequest) (*dto.LocationResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("location", err)
	}
	l.Name = req.Name
	l.Description = req.Description
	l.Address = req.Address
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, writeConflict("location", err)
	}
	s.cache.InvalidateDashboard(ctx)
	resp := locationResponse(l)
	return &resp, nil
}

func (s *locationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeConflict("location", err)
	}
	s.cache.InvalidateDashboard(ctx)
	return nil
}
