package store

import (
	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// Store indexes the records of a single report pass so they can be
// aggregated with SQL.
type Store interface {
	BulkInsertQueries(records []models.QueryRecord) error
	CountQueries() (int, error)
	GetOutcomeCounts() ([]models.OutcomeCount, error)
	GetQueueSummaries() ([]models.QueueSummary, error)
	Close() error
}
