package database

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aigenthix/cms-backend/errs"
	"github.com/aigenthix/cms-backend/models"
)

// wordsPerMinute is the reading speed assumed when deriving read_time.
const wordsPerMinute = 200

type BlogRepo struct {
	pool *Pool
}

func NewBlogRepo(pool *Pool) *BlogRepo {
	return &BlogRepo{pool}
}

// ReadTime derives the estimated reading time in minutes from the body word
// count. Never less than one minute.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// encodeTags serializes a tag list for the jsonb column. A nil list is stored
// as an empty array, never as null.
func encodeTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

// FindByID returns a blog by ID regardless of published state (admin lookup),
// or nil when no row matches.
func (r *BlogRepo) FindByID(ctx context.Context, id int) (*models.Blog, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	var blog models.Blog
	err = db.First(&blog, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "blog", err)
	}
	return &blog, nil
}

// FindBySlug returns a published blog by slug, or nil when no published row
// matches. This is the public lookup path.
func (r *BlogRepo) FindBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	var blog models.Blog
	err = db.Where("slug = ? AND published = ?", slug, true).First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "blog", err)
	}
	return &blog, nil
}

// SlugExists reports whether any row (published or not) already uses the
// slug. Used by the service's collision check before insert.
func (r *BlogRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&models.Blog{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, errs.NewDatabaseError("count", "blog", err)
	}
	return count > 0, nil
}

// FindFeatured returns the most recently created blog that is both published
// and featured, or nil when none exists.
func (r *BlogRepo) FindFeatured(ctx context.Context) (*models.Blog, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	var blog models.Blog
	err = db.
		Where("published = ? AND is_featured = ?", true, true).
		Order("created_at DESC").
		First(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "blog", err)
	}
	return &blog, nil
}

// FindAll returns blogs ordered by creation time descending. A limit of zero
// means unbounded.
func (r *BlogRepo) FindAll(ctx context.Context, publishedOnly bool, limit int) ([]*models.Blog, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Order("created_at DESC")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var blogs []*models.Blog
	if err := query.Find(&blogs).Error; err != nil {
		return nil, errs.NewDatabaseError("list", "blogs", err)
	}
	return blogs, nil
}

// Create inserts a new blog with the given slug and returns the generated ID.
// Slug uniqueness is the caller's responsibility; the backing unique index is
// the last line of defense and surfaces as ErrDuplicateSlug.
func (r *BlogRepo) Create(ctx context.Context, input *models.BlogInput, slug string) (int, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return 0, err
	}

	blog := models.Blog{
		Title:            input.Title,
		Slug:             slug,
		Content:          input.Content,
		Excerpt:          input.Excerpt,
		Category:         input.Category,
		Tags:             encodeTags(input.Tags),
		FeaturedImageURL: input.FeaturedImageURL,
		AuthorName:       input.AuthorName,
		AuthorBio:        input.AuthorBio,
		AuthorAvatarURL:  input.AuthorAvatarURL,
		AuthorTwitter:    input.AuthorTwitter,
		AuthorLinkedin:   input.AuthorLinkedin,
		AuthorFacebook:   input.AuthorFacebook,
		AuthorInstagram:  input.AuthorInstagram,
		AuthorGithub:     input.AuthorGithub,
		AuthorWebsite:    input.AuthorWebsite,
		CTAText:          input.CTAText,
		CTAURL:           input.CTAURL,
		CTAStyle:         input.CTAStyle,
		CTAPosition:      input.CTAPosition,
		Published:        input.Published,
		IsFeatured:       input.IsFeatured,
		ReadTime:         ReadTime(input.Content),
	}

	if err := db.Create(&blog).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, errs.NewDuplicateSlug(slug, err)
		}
		return 0, errs.NewDatabaseError("create", "blog", err)
	}
	return blog.ID, nil
}

// Update rewrites all mutable fields of a blog, recomputing read_time and
// bumping updated_at. Returns false when no row matched the ID.
func (r *BlogRepo) Update(ctx context.Context, id int, input *models.BlogInput, slug string) (bool, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return false, err
	}

	// A map is used deliberately: struct-based Updates would skip zero
	// values and never clear published/is_featured or optional fields.
	updates := map[string]any{
		"title":              input.Title,
		"content":            input.Content,
		"excerpt":            input.Excerpt,
		"slug":               slug,
		"category":           input.Category,
		"tags":               encodeTags(input.Tags),
		"featured_image_url": input.FeaturedImageURL,
		"author_name":        input.AuthorName,
		"author_bio":         input.AuthorBio,
		"author_avatar_url":  input.AuthorAvatarURL,
		"author_twitter":     input.AuthorTwitter,
		"author_linkedin":    input.AuthorLinkedin,
		"author_facebook":    input.AuthorFacebook,
		"author_instagram":   input.AuthorInstagram,
		"author_github":      input.AuthorGithub,
		"author_website":     input.AuthorWebsite,
		"cta_text":           input.CTAText,
		"cta_url":            input.CTAURL,
		"cta_style":          input.CTAStyle,
		"cta_position":       input.CTAPosition,
		"published":          input.Published,
		"is_featured":        input.IsFeatured,
		"read_time":          ReadTime(input.Content),
	}

	result := db.Model(&models.Blog{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, errs.NewDuplicateSlug(slug, result.Error)
		}
		return false, errs.NewDatabaseError("update", "blog", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a blog. Returns false when no row matched.
func (r *BlogRepo) Delete(ctx context.Context, id int) (bool, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return false, err
	}

	result := db.Delete(&models.Blog{}, id)
	if result.Error != nil {
		return false, errs.NewDatabaseError("delete", "blog", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// TogglePublished flips the published flag in a single atomic statement and
// returns the new value. The row lock taken by the UPDATE serializes
// concurrent toggles on the same row, so no toggle can observe a stale value.
func (r *BlogRepo) TogglePublished(ctx context.Context, id int) (value bool, found bool, err error) {
	return r.toggleFlag(ctx, id, "published")
}

// ToggleFeatured flips the is_featured flag, same contract as TogglePublished.
func (r *BlogRepo) ToggleFeatured(ctx context.Context, id int) (value bool, found bool, err error) {
	return r.toggleFlag(ctx, id, "is_featured")
}

func (r *BlogRepo) toggleFlag(ctx context.Context, id int, column string) (bool, bool, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return false, false, err
	}

	// column is one of two compile-time constants, never user input.
	// updated_at is bound from here so its precision matches the timestamps
	// gorm writes on create and update.
	var newValue bool
	result := db.Raw(
		"UPDATE blogs SET "+column+" = NOT "+column+", updated_at = ? WHERE id = ? RETURNING "+column,
		time.Now(), id,
	).Scan(&newValue)
	if result.Error != nil {
		return false, false, errs.NewDatabaseError("toggle", "blog", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, false, nil
	}
	return newValue, true, nil
}

// BulkSetPublished sets the published flag on all matching rows in one
// statement. Nonexistent IDs are skipped silently; an empty list is a no-op.
func (r *BlogRepo) BulkSetPublished(ctx context.Context, ids []int, published bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	db, err := r.pool.Get(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Model(&models.Blog{}).Where("id IN ?", ids).Update("published", published)
	if result.Error != nil {
		return 0, errs.NewDatabaseError("bulk update", "blogs", result.Error)
	}
	return result.RowsAffected, nil
}

// BulkDelete deletes all matching rows in one statement. Same partial-match
// semantics as BulkSetPublished.
func (r *BlogRepo) BulkDelete(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	db, err := r.pool.Get(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Where("id IN ?", ids).Delete(&models.Blog{})
	if result.Error != nil {
		return 0, errs.NewDatabaseError("bulk delete", "blogs", result.Error)
	}
	return result.RowsAffected, nil
}
