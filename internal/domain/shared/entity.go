package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything the ledger tracks by identity
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries the id and audit timestamps of every ledger record
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// Touch stamps the entity as modified now
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewBaseEntity returns an entity with a fresh id, created now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}
