package service

import (
	"context"

	"sosstock/internal/dto"
	"sosstock/internal/model"
	"sosstock/internal/repository"

	"github.com/google/uuid"
)

type SupplierService interface {
	List(ctx context.Context, activeOnly bool) ([]dto.SupplierResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	Create(ctx context.Context, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type supplierService struct {
	repo repository.SupplierRepository
}

func NewSupplierService(repo repository.SupplierRepository) SupplierService {
	return &supplierService{repo: repo}
}

func (s *supplierService) List(ctx context.Context, activeOnly bool) ([]dto.SupplierResponse, error) {
	suppliers, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, len(suppliers))
	for i := range suppliers {
		out[i] = supplierResponse(&suppliers[i])
	}
	return out, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supplier", err)
	}
	resp := supplierResponse(sup)
	return &resp, nil
}

func applySupplier(sup *model.Supplier, req dto.SupplierRequest) {
	sup.Name = req.Name
	sup.ContactName = req.ContactName
	sup.Email = req.Email
	sup.Phone = req.Phone
	sup.Address = req.Address
	sup.Notes = req.Notes
	if req.IsActive != nil {
		sup.IsActive = *req.IsActive
	}
}

func (s *supplierService) Create(ctx context.Context, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	sup := &model.Supplier{IsActive: true}
	applySupplier(sup, req)
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, writeConflict("supplier", err)
	}
	resp := supplierResponse(sup)
	return &resp, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supplier", err)
	}
	applySupplier(sup, req)
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, writeConflict("supplier", err)
	}
	resp := supplierResponse(sup)
	return &resp, nil
}

// Delete fails with ErrConflict while orders or product links still point
// at the supplier; deactivate it instead.
func (s *supplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return writeConflict("supplier", s.repo.Delete(ctx, id))
}
