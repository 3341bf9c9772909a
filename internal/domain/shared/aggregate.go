package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent `gorm:"-"`
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		domainEvents: make([]DomainEvent, 0),
	}
}

// EnterpriseAggregateRoot extends BaseAggregateRoot with enterprise scoping.
// Every entity in the system is partitioned by the enterprise that owns it.
type EnterpriseAggregateRoot struct {
	BaseAggregateRoot
	EnterpriseID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewEnterpriseAggregateRoot creates a new enterprise-scoped aggregate root
func NewEnterpriseAggregateRoot(enterpriseID uuid.UUID) EnterpriseAggregateRoot {
	return EnterpriseAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		EnterpriseID:      enterpriseID,
	}
}
