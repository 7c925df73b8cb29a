package search

import "context"

type Repository interface {
	// Search returns open slots matching the criteria, ordered by provider
	// then start time so the service can group without re-sorting.
	Search(ctx context.Context, c Criteria) ([]Row, error)
}
