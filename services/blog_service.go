package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/aigenthix/cms-backend/cache"
	"github.com/aigenthix/cms-backend/errs"
	"github.com/aigenthix/cms-backend/models"
)

// Cache key layout and TTLs. A detail view outlives the composite
// landing-page payload.
const (
	slugKeyPrefix = cache.BlogKeyPrefix + "slug:"
	pageDataKey   = cache.BlogKeyPrefix + "page_data"

	slugTTL     = 10 * time.Minute
	pageDataTTL = 5 * time.Minute

	latestLimit = 6
)

// BlogRepository is the store-side contract the service orchestrates.
// Implemented by database.BlogRepo.
type BlogRepository interface {
	FindByID(ctx context.Context, id int) (*models.Blog, error)
	FindBySlug(ctx context.Context, slug string) (*models.Blog, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindFeatured(ctx context.Context) (*models.Blog, error)
	FindAll(ctx context.Context, publishedOnly bool, limit int) ([]*models.Blog, error)
	Create(ctx context.Context, input *models.BlogInput, slug string) (int, error)
	Update(ctx context.Context, id int, input *models.BlogInput, slug string) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	TogglePublished(ctx context.Context, id int) (value bool, found bool, err error)
	ToggleFeatured(ctx context.Context, id int) (value bool, found bool, err error)
	BulkSetPublished(ctx context.Context, ids []int, published bool) (int64, error)
	BulkDelete(ctx context.Context, ids []int) (int64, error)
}

// Cache is the best-effort acceleration contract. Implemented by
// cache.Service; a nil-safe no-op implementation is fine for tests.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	InvalidateBlogCache(ctx context.Context)
}

// BlogService is the only component the boundary layer talks to. It defines
// the consistency contract between cache and store: cache-aside reads, and
// coarse namespace invalidation strictly after every successful write.
type BlogService struct {
	repo   BlogRepository
	cache  Cache
	logger zerolog.Logger
}

func NewBlogService(repo BlogRepository, c Cache) *BlogService {
	return &BlogService{
		repo:   repo,
		cache:  c,
		logger: log.With().Str("serviceName", "blogService").Logger(),
	}
}

// CreateResult is returned by Create: the generated ID plus the slug the
// record was actually stored under (which may carry a collision suffix).
type CreateResult struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
}

// normalize guarantees the public shape: the tags column reads back as an
// empty array, never null.
func normalize(b *models.Blog) *models.Blog {
	if len(b.Tags) == 0 || string(b.Tags) == "null" {
		b.Tags = datatypes.JSON("[]")
	}
	return b
}

// GetBySlug returns a published blog by slug, cache-aside with a 10 minute
// TTL.
func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	key := slugKeyPrefix + slug

	var cached models.Blog
	if s.cache.Get(ctx, key, &cached) {
		s.logger.Debug().Str("slug", slug).Msg("Cache hit for blog slug")
		return &cached, nil
	}

	blog, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if blog == nil {
		return nil, errs.NewNotFound("blog")
	}

	normalize(blog)
	s.cache.Set(ctx, key, blog, slugTTL)
	return blog, nil
}

// GetByID returns a blog regardless of published state. Admin path, never
// cached.
func (s *BlogService) GetByID(ctx context.Context, id int) (*models.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog == nil {
		return nil, errs.NewNotFound("blog")
	}
	return normalize(blog), nil
}

// GetAll lists blogs newest first, optionally restricted to published ones.
func (s *BlogService) GetAll(ctx context.Context, publishedOnly bool) ([]models.BlogListItem, error) {
	blogs, err := s.repo.FindAll(ctx, publishedOnly, 0)
	if err != nil {
		return nil, err
	}

	items := make([]models.BlogListItem, 0, len(blogs))
	for _, blog := range blogs {
		items = append(items, blog.ToListItem())
	}
	return items, nil
}

// GetPageData composes the public landing payload: featured + latest +
// popular + categories, served from one cache entry so a hit answers four
// logical queries at once. Popular currently mirrors latest until a distinct
// popularity signal exists; categories are not yet backed by a table.
func (s *BlogService) GetPageData(ctx context.Context) (*models.BlogPageData, error) {
	var cached models.BlogPageData
	if s.cache.Get(ctx, pageDataKey, &cached) {
		s.logger.Debug().Msg("Cache hit for blog page data")
		return &cached, nil
	}

	featuredBlog, err := s.repo.FindFeatured(ctx)
	if err != nil {
		return nil, err
	}
	var featured *models.BlogListItem
	if featuredBlog != nil {
		item := featuredBlog.ToListItem()
		featured = &item
	}

	latestBlogs, err := s.repo.FindAll(ctx, true, latestLimit)
	if err != nil {
		return nil, err
	}
	latest := make([]models.BlogListItem, 0, len(latestBlogs))
	for _, blog := range latestBlogs {
		latest = append(latest, blog.ToListItem())
	}

	pageData := &models.BlogPageData{
		Featured:   featured,
		Latest:     latest,
		Popular:    latest,
		Categories: []string{},
	}

	s.cache.Set(ctx, pageDataKey, pageData, pageDataTTL)
	return pageData, nil
}

// Create inserts a new blog under a unique slug and invalidates the content
// cache. The candidate slug is the caller's, or derived from the title. A
// collision appends a timestamp suffix; the check-then-insert window is
// narrow but real, so a duplicate-slug failure from the backing constraint is
// retried once with a fresh suffix before the conflict is surfaced.
func (s *BlogService) Create(ctx context.Context, input *models.BlogInput) (*CreateResult, error) {
	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Title)
	}

	exists, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		slug = fmt.Sprintf("%s-%s", slug, time.Now().Format("20060102150405"))
	}

	id, err := s.repo.Create(ctx, input, slug)
	if errs.IsDuplicateSlug(err) {
		slug = fmt.Sprintf("%s-%d", slug, time.Now().UnixNano())
		id, err = s.repo.Create(ctx, input, slug)
	}
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int("id", id).Str("title", input.Title).Msg("Created blog")

	return &CreateResult{ID: id, Slug: slug}, nil
}

// Update rewrites a blog in place and invalidates the content cache. An
// unmatched ID reports NotFound, never a silent success.
func (s *BlogService) Update(ctx context.Context, id int, input *models.BlogInput) (string, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", errs.NewNotFound("blog")
	}

	slug := input.Slug
	if slug == "" {
		slug = existing.Slug
	}

	updated, err := s.repo.Update(ctx, id, input, slug)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", errs.NewNotFound("blog")
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int("id", id).Msg("Updated blog")

	return slug, nil
}

// Delete removes a blog and invalidates the content cache.
func (s *BlogService) Delete(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NewNotFound("blog")
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int("id", id).Msg("Deleted blog")
	return nil
}

// TogglePublished flips the published flag and returns the new value.
func (s *BlogService) TogglePublished(ctx context.Context, id int) (bool, error) {
	value, found, err := s.repo.TogglePublished(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, errs.NewNotFound("blog")
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int("id", id).Bool("published", value).Msg("Toggled published")
	return value, nil
}

// ToggleFeatured flips the featured flag and returns the new value.
func (s *BlogService) ToggleFeatured(ctx context.Context, id int) (bool, error) {
	value, found, err := s.repo.ToggleFeatured(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, errs.NewNotFound("blog")
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int("id", id).Bool("featured", value).Msg("Toggled featured")
	return value, nil
}

// BulkPublish publishes all matching blogs and reports the count affected.
// Partial ID mismatches are not an error.
func (s *BlogService) BulkPublish(ctx context.Context, ids []int) (int64, error) {
	count, err := s.repo.BulkSetPublished(ctx, ids, true)
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int64("count", count).Msg("Bulk published blogs")
	return count, nil
}

// BulkUnpublish unpublishes all matching blogs.
func (s *BlogService) BulkUnpublish(ctx context.Context, ids []int) (int64, error) {
	count, err := s.repo.BulkSetPublished(ctx, ids, false)
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int64("count", count).Msg("Bulk unpublished blogs")
	return count, nil
}

// BulkDelete deletes all matching blogs.
func (s *BlogService) BulkDelete(ctx context.Context, ids []int) (int64, error) {
	count, err := s.repo.BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateBlogCache(ctx)
	s.logger.Info().Int64("count", count).Msg("Bulk deleted blogs")
	return count, nil
}
