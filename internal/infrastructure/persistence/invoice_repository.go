package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/suppliers/backend/internal/domain/invoicing"
	"github.com/suppliers/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines in extraction order
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var invoice invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAllForEnterprise finds all invoices for an enterprise, newest first
func (r *GormInvoiceRepository) FindAllForEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("enterprise_id = ?", enterpriseID).
		Order("date DESC, created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save persists the invoice together with its lines in one transaction.
// Either the invoice and every line become durable or nothing does. Lines
// are replaced wholesale; they carry no identity of their own beyond the
// invoice that owns them.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(invoice).Error; err != nil {
			return err
		}
		if err := tx.Delete(&invoicing.InvoiceLine{}, "invoice_id = ?", invoice.ID).Error; err != nil {
			return err
		}
		if len(invoice.Lines) == 0 {
			return nil
		}
		return tx.Create(&invoice.Lines).Error
	})
}

// Delete removes an invoice; the foreign key cascade removes its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&invoicing.InvoiceLine{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&invoicing.Invoice{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Exists reports whether an invoice with the given number and document type
// already exists within an enterprise
func (r *GormInvoiceRepository) Exists(ctx context.Context, enterpriseID uuid.UUID, invoiceNumber string, documentType invoicing.DocumentType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&invoicing.Invoice{}).
		Where("enterprise_id = ? AND invoice_number = ? AND document_type = ?", enterpriseID, invoiceNumber, documentType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
