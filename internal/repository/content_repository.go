package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/content"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

var _ content.Repository = (*ContentRepository)(nil)

func (r *ContentRepository) Create(ctx context.Context, a *content.Article) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*content.Article, error) {
	var a content.Article
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, content.ErrArticleNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ContentRepository) GetBySlug(ctx context.Context, slug string) (*content.Article, error) {
	var a content.Article
	err := r.db.WithContext(ctx).
		Where("slug = ? AND deleted_at IS NULL", slug).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, content.ErrArticleNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ContentRepository) Update(ctx context.Context, id uuid.UUID, cmd *content.UpdateArticleCommand) (*content.Article, error) {
	updates := map[string]any{}
	if cmd.Title != nil {
		updates["title"] = *cmd.Title
	}
	if cmd.Summary != nil {
		updates["summary"] = *cmd.Summary
	}
	if cmd.Body != nil {
		updates["body"] = *cmd.Body
	}
	if cmd.ImagePath != nil {
		updates["image_path"] = *cmd.ImagePath
	}
	if cmd.Published != nil {
		updates["published"] = *cmd.Published
		if *cmd.Published {
			updates["published_at"] = time.Now()
		}
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).
			Model(&content.Article{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, content.ErrArticleNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *ContentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&content.Article{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return content.ErrArticleNotFound
	}
	return nil
}

func (r *ContentRepository) List(ctx context.Context, q *content.ListArticlesQuery) (*content.PagedArticles, error) {
	tx := r.db.WithContext(ctx).
		Model(&content.Article{}).
		Where("deleted_at IS NULL")

	if q.Kind != nil {
		tx = tx.Where("kind = ?", *q.Kind)
	}
	if q.PublishedOnly {
		tx = tx.Where("published = ?", true)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*content.Article
	err := tx.Order("created_at desc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &content.PagedArticles{
		Articles:   items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *ContentRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&content.Article{}).
		Where("slug = ? AND deleted_at IS NULL", slug)
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
