package content

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*Article, error)
	GetBySlug(ctx context.Context, slug string) (*Article, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateArticleCommand) (*Article, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListArticlesQuery) (*PagedArticles, error)

	// ExistsBySlug checks slug uniqueness without fetching the full record.
	ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
}
