package partner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/suppliers/backend/internal/domain/partner"
	"github.com/suppliers/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SupplierService handles supplier-related business operations, including
// lazy identity resolution for the document reconciliation pipeline.
type SupplierService struct {
	supplierRepo partner.SupplierRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository, eventBus shared.EventPublisher, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Create creates a new supplier explicitly. Duplicate tax identifiers within
// an enterprise are rejected with a conflict.
func (s *SupplierService) Create(ctx context.Context, enterpriseID uuid.UUID, req CreateSupplierRequest) (*SupplierResponse, error) {
	if req.CifNif != "" {
		existing, err := s.supplierRepo.FindByCifNif(ctx, enterpriseID, req.CifNif)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("Supplier with CIF/NIF %s already exists for this enterprise", req.CifNif))
		}
	}

	supplier, err := partner.NewSupplier(enterpriseID, req.Name, req.CifNif)
	if err != nil {
		return nil, err
	}

	if req.Address != "" || req.PhoneNumber != "" {
		if err := supplier.SetContact(req.Address, req.PhoneNumber); err != nil {
			return nil, err
		}
	}
	if req.CommercialName != "" || req.CommercialPhoneNumber != "" {
		if err := supplier.SetCommercialContact(req.CommercialName, req.CommercialPhoneNumber); err != nil {
			return nil, err
		}
	}
	if req.DeliveryDays != "" || req.MinPriceDelivery != nil {
		minPrice := supplier.MinPriceDelivery
		if req.MinPriceDelivery != nil {
			minPrice = *req.MinPriceDelivery
		}
		if err := supplier.SetDeliveryTerms(req.DeliveryDays, minPrice); err != nil {
			return nil, err
		}
	}
	if req.SanitaryRegistrationNumber != "" {
		if err := supplier.SetSanitaryRegistrationNumber(req.SanitaryRegistrationNumber); err != nil {
			return nil, err
		}
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, supplier)

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// FindOrCreate resolves a supplier identity for an analyzed document.
//
// Lookup order: exact match on (cifNif, enterpriseID), then case-insensitive
// match on (name, enterpriseID), then create. The find-then-create sequence
// is a check-then-act race under concurrent duplicate events; the store's
// uniqueness constraint on (enterprise_id, cif_nif) rejects the losing
// create, which is treated as "someone else created it first" and answered
// with a re-fetch.
func (s *SupplierService) FindOrCreate(ctx context.Context, enterpriseID uuid.UUID, name, cifNif string) (*SupplierResponse, error) {
	if cifNif != "" {
		supplier, err := s.supplierRepo.FindByCifNif(ctx, enterpriseID, cifNif)
		if err == nil {
			s.logger.Debug("supplier resolved by tax id",
				zap.String("supplier_id", supplier.ID.String()),
				zap.String("cif_nif", cifNif),
			)
			response := ToSupplierResponse(supplier)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	supplier, err := s.supplierRepo.FindByName(ctx, enterpriseID, name)
	if err == nil {
		s.logger.Debug("supplier resolved by name",
			zap.String("supplier_id", supplier.ID.String()),
			zap.String("name", name),
		)
		response := ToSupplierResponse(supplier)
		return &response, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	supplier, err = partner.NewSupplier(enterpriseID, name, cifNif)
	if err != nil {
		return nil, err
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) && cifNif != "" {
			// A concurrent event created the same supplier first; use theirs.
			existing, findErr := s.supplierRepo.FindByCifNif(ctx, enterpriseID, cifNif)
			if findErr != nil {
				return nil, findErr
			}
			response := ToSupplierResponse(existing)
			return &response, nil
		}
		return nil, err
	}

	s.logger.Info("auto-created supplier",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("name", name),
		zap.String("cif_nif", cifNif),
		zap.String("enterprise_id", enterpriseID.String()),
	)

	s.publishEvents(ctx, supplier)

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves all suppliers for an enterprise
func (s *SupplierService) List(ctx context.Context, enterpriseID uuid.UUID) ([]SupplierResponse, error) {
	suppliers, err := s.supplierRepo.FindAllForEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}

	responses := make([]SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		responses = append(responses, ToSupplierResponse(&suppliers[i]))
	}
	return responses, nil
}

// Delete removes a supplier. Deletion is blocked while dependent invoices
// exist, surfacing a conflict to the caller.
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.supplierRepo.CountInvoices(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Cannot delete supplier with %d associated invoices; delete the invoices first", count))
	}

	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return err
	}

	supplier.AddDomainEvent(partner.NewSupplierDeletedEvent(supplier))
	s.publishEvents(ctx, supplier)

	s.logger.Info("supplier deleted",
		zap.String("supplier_id", id.String()),
		zap.String("name", supplier.Name),
	)
	return nil
}

// publishEvents drains pending domain events to the bus. Publication happens
// after the store commit; failures are logged, never surfaced.
func (s *SupplierService) publishEvents(ctx context.Context, supplier *partner.Supplier) {
	if s.eventBus == nil {
		return
	}
	events := supplier.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish supplier events", zap.Error(err))
	}
	supplier.ClearDomainEvents()
}
