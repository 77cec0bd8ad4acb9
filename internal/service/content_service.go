package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicdesk/clinicdesk/internal/domain/content"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContentService struct {
	repo     content.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewContentService(repo content.Repository, auditSvc *AuditService, log *zap.Logger) *ContentService {
	return &ContentService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *ContentService) CreateArticle(ctx context.Context, cmd *content.CreateArticleCommand, callerID uuid.UUID, callerRole string, ip string) (*content.Article, error) {
	var errs []string
	if !cmd.Kind.IsValid() {
		errs = append(errs, "kind must be news, disease or invention")
	}
	if strings.TrimSpace(cmd.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(cmd.Body) == "" {
		errs = append(errs, "body is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	slug := cmd.Slug
	if slug == "" {
		slug = content.Slugify(cmd.Title)
	}

	taken, err := s.repo.ExistsBySlug(ctx, slug, nil)
	if err != nil {
		return nil, fmt.Errorf("checking slug uniqueness: %w", err)
	}
	if taken {
		return nil, content.ErrSlugTaken
	}

	a := &content.Article{
		Kind:      cmd.Kind,
		Title:     strings.TrimSpace(cmd.Title),
		Slug:      slug,
		Summary:   cmd.Summary,
		Body:      cmd.Body,
		ImagePath: cmd.ImagePath,
		Published: cmd.Published,
		AuthorID:  cmd.AuthorID,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create article", zap.Error(err))
		return nil, fmt.Errorf("creating article: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "article",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *ContentService) GetArticleBySlug(ctx context.Context, slug string) (*content.Article, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *ContentService) UpdateArticle(ctx context.Context, id uuid.UUID, cmd *content.UpdateArticleCommand, callerID uuid.UUID, callerRole string, ip string) (*content.Article, error) {
	a, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "article",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *ContentService) DeleteArticle(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "delete",
		ResourceType: "article",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return nil
}

func (s *ContentService) ListArticles(ctx context.Context, q *content.ListArticlesQuery) (*content.PagedArticles, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}
