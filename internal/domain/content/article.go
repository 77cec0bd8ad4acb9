package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind classifies portal articles.
type Kind string

const (
	KindNews      Kind = "news"
	KindDisease   Kind = "disease"
	KindInvention Kind = "invention"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindNews, KindDisease, KindInvention:
		return true
	}
	return false
}

type Article struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Kind      Kind   `gorm:"column:kind;type:varchar(20);not null;index"`
	Title     string `gorm:"column:title;type:varchar(255);not null"`
	Slug      string `gorm:"column:slug;type:varchar(255);uniqueIndex;not null"`
	Summary   string `gorm:"column:summary;type:text"`
	Body      string `gorm:"column:body;type:text;not null"`
	ImagePath string `gorm:"column:image_path;type:varchar(500)"`

	Published   bool       `gorm:"column:published;default:false;index"`
	PublishedAt *time.Time `gorm:"column:published_at"`

	AuthorID uuid.UUID `gorm:"column:author_id;type:uuid;not null;index"`
}

func (Article) TableName() string {
	return "articles"
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Published && a.PublishedAt == nil {
		now := time.Now()
		a.PublishedAt = &now
	}
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type CreateArticleCommand struct {
	Kind      Kind
	Title     string
	Slug      string // derived from Title when empty
	Summary   string
	Body      string
	ImagePath string
	Published bool
	AuthorID  uuid.UUID
}

type UpdateArticleCommand struct {
	Title     *string
	Summary   *string
	Body      *string
	ImagePath *string
	Published *bool
	UpdatedBy uuid.UUID
}

type ListArticlesQuery struct {
	Kind          *Kind
	PublishedOnly bool
	Page          int
	PageSize      int
}

type PagedArticles struct {
	Articles   []*Article
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
