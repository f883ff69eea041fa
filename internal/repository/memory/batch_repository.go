package memory

import (
	"time"

	"clinical-scribe-be/pkg/batch"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// BatchRepository keeps each clinician's in-progress batch in memory. State
// is intentionally not durable; an abandoned batch expires after a day.
type BatchRepository struct {
	cache *cache.Cache
}

func NewBatchRepository() *BatchRepository {
	// Purge abandoned batches every hour.
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &BatchRepository{
		cache: c,
	}
}

// GetOrCreate returns the user's current batch, creating an empty one if
// none exists or the previous one expired.
func (r *BatchRepository) GetOrCreate(userId uuid.UUID) *batch.Batch {
	key := userId.String()
	if x, found := r.cache.Get(key); found {
		// Touch the TTL so an active batch never expires mid-run.
		b := x.(*batch.Batch)
		r.cache.Set(key, b, cache.DefaultExpiration)
		return b
	}
	b := batch.NewBatch()
	r.cache.Set(key, b, cache.DefaultExpiration)
	return b
}

// Get returns the user's current batch without creating one.
func (r *BatchRepository) Get(userId uuid.UUID) (*batch.Batch, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		return x.(*batch.Batch), true
	}
	return nil, false
}

// Delete discards the user's batch state.
func (r *BatchRepository) Delete(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}
