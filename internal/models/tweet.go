package models

import (
	"time"

	"github.com/google/uuid"
)

type Tweet struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Tweet) Owner() uuid.UUID { return t.OwnerID }
