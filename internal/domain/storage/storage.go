// Package storage declares the persistence contracts shared by the domain services.
package storage

import (
	"context"
	"time"
)

// Transactor runs fn inside one atomic unit of work. Repositories called with the
// context handed to fn join that unit.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Now returns the current UTC time at the precision the store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
