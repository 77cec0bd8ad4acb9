package content

import "errors"

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrSlugTaken       = errors.New("an article with this slug already exists")
	ErrInvalidKind     = errors.New("invalid article kind")
)
