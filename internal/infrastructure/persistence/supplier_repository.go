package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/suppliers/backend/internal/domain/invoicing"
	"github.com/suppliers/backend/internal/domain/partner"
	"github.com/suppliers/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindByIDForEnterprise finds a supplier by ID within an enterprise
func (r *GormSupplierRepository) FindByIDForEnterprise(ctx context.Context, enterpriseID, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).
		Where("enterprise_id = ? AND id = ?", enterpriseID, id).
		First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindByCifNif finds a supplier by its tax identifier within an enterprise.
// Stored identifiers are uppercased, so the lookup normalizes its input the
// same way.
func (r *GormSupplierRepository) FindByCifNif(ctx context.Context, enterpriseID uuid.UUID, cifNif string) (*partner.Supplier, error) {
	if cifNif == "" {
		return nil, shared.ErrNotFound
	}
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).
		Where("enterprise_id = ? AND cif_nif = ?", enterpriseID, strings.ToUpper(strings.TrimSpace(cifNif))).
		First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindByName finds a supplier by name within an enterprise, case-insensitively
func (r *GormSupplierRepository) FindByName(ctx context.Context, enterpriseID uuid.UUID, name string) (*partner.Supplier, error) {
	if name == "" {
		return nil, shared.ErrNotFound
	}
	var supplier partner.Supplier
	if err := r.db.WithContext(ctx).
		Where("enterprise_id = ? AND LOWER(name) = LOWER(?)", enterpriseID, strings.TrimSpace(name)).
		First(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindAllForEnterprise finds all suppliers for an enterprise ordered by name
func (r *GormSupplierRepository) FindAllForEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]partner.Supplier, error) {
	var suppliers []partner.Supplier
	if err := r.db.WithContext(ctx).
		Where("enterprise_id = ?", enterpriseID).
		Order("name ASC").
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Save creates or updates a supplier. A violation of the unique constraint on
// (enterprise_id, cif_nif) surfaces as shared.ErrAlreadyExists so callers can
// resolve the create race.
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	if err := r.db.WithContext(ctx).Save(supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a supplier
func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Supplier{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountInvoices counts the invoices referencing a supplier
func (r *GormSupplierRepository) CountInvoices(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&invoicing.Invoice{}).
		Where("supplier_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormSupplierRepository implements SupplierRepository
var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
