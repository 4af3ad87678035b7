package database

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aigenthix/cms-backend/errs"
	"github.com/aigenthix/cms-backend/models"
)

// newTestPool opens an isolated in-memory store and runs migrations. The pool
// is capped at one connection so the memory database is not duplicated per
// connection.
func newTestPool(t *testing.T) *Pool {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	pool := NewPoolWithDB(db, zerolog.Nop())
	require.NoError(t, Migrate(context.Background(), pool))
	t.Cleanup(pool.Close)
	return pool
}

func testInput(title string) *models.BlogInput {
	return &models.BlogInput{
		Title:     title,
		Content:   "a few words of body text",
		Published: true,
	}
}

func TestBlogRepoCreate_ComputesReadTime(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	input := testInput("Long Read")
	input.Content = strings.TrimSpace(strings.Repeat("word ", 400))

	id, err := repo.Create(ctx, input, "long-read")
	require.NoError(t, err)

	blog, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, blog)
	assert.Equal(t, 2, blog.ReadTime)
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, 1, ReadTime(""))
	assert.Equal(t, 1, ReadTime("just three words"))
	assert.Equal(t, 1, ReadTime(strings.Repeat("w ", 200)))
	assert.Equal(t, 2, ReadTime(strings.Repeat("w ", 350)))
	assert.Equal(t, 5, ReadTime(strings.Repeat("w ", 1000)))
}

func TestBlogRepoCreate_NilTagsStoredAsEmptyArray(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testInput("No Tags"), "no-tags")
	require.NoError(t, err)

	blog, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, blog)
	assert.Equal(t, []string{}, blog.TagList())
	assert.JSONEq(t, "[]", string(blog.Tags))
}

func TestBlogRepoCreate_DuplicateSlug(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, testInput("First"), "same-slug")
	require.NoError(t, err)

	_, err = repo.Create(ctx, testInput("Second"), "same-slug")
	require.Error(t, err)
	assert.True(t, errs.IsDuplicateSlug(err))
}

func TestBlogRepoFindBySlug_OnlyPublished(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	draft := testInput("Draft")
	draft.Published = false
	_, err := repo.Create(ctx, draft, "draft-post")
	require.NoError(t, err)

	blog, err := repo.FindBySlug(ctx, "draft-post")
	require.NoError(t, err)
	assert.Nil(t, blog)

	_, err = repo.Create(ctx, testInput("Live"), "live-post")
	require.NoError(t, err)

	blog, err = repo.FindBySlug(ctx, "live-post")
	require.NoError(t, err)
	require.NotNil(t, blog)
	assert.Equal(t, "Live", blog.Title)
}

func TestBlogRepoFindByID_Missing(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))

	blog, err := repo.FindByID(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, blog)
}

func TestBlogRepoSlugExists(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	exists, err := repo.SlugExists(ctx, "taken")
	require.NoError(t, err)
	assert.False(t, exists)

	// Unpublished rows hold their slug too.
	draft := testInput("Taken")
	draft.Published = false
	_, err = repo.Create(ctx, draft, "taken")
	require.NoError(t, err)

	exists, err = repo.SlugExists(ctx, "taken")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBlogRepoFindFeatured(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	blog, err := repo.FindFeatured(ctx)
	require.NoError(t, err)
	assert.Nil(t, blog)

	// Featured but unpublished does not qualify.
	hidden := testInput("Hidden")
	hidden.Published = false
	hidden.IsFeatured = true
	_, err = repo.Create(ctx, hidden, "hidden")
	require.NoError(t, err)

	blog, err = repo.FindFeatured(ctx)
	require.NoError(t, err)
	assert.Nil(t, blog)

	front := testInput("Front Page")
	front.IsFeatured = true
	_, err = repo.Create(ctx, front, "front-page")
	require.NoError(t, err)

	blog, err = repo.FindFeatured(ctx)
	require.NoError(t, err)
	require.NotNil(t, blog)
	assert.Equal(t, "Front Page", blog.Title)
}

func TestBlogRepoFindAll_FilterAndLimit(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	for _, slug := range []string{"one", "two", "three"} {
		_, err := repo.Create(ctx, testInput(slug), slug)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	draft := testInput("Draft")
	draft.Published = false
	_, err := repo.Create(ctx, draft, "draft")
	require.NoError(t, err)

	all, err := repo.FindAll(ctx, false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	published, err := repo.FindAll(ctx, true, 0)
	require.NoError(t, err)
	assert.Len(t, published, 3)

	limited, err := repo.FindAll(ctx, true, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	// Newest first.
	assert.Equal(t, "three", limited[0].Slug)
	assert.Equal(t, "two", limited[1].Slug)
}

func TestBlogRepoUpdate_RewritesAndClearsZeroValues(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	input := testInput("Before")
	input.IsFeatured = true
	id, err := repo.Create(ctx, input, "before")
	require.NoError(t, err)

	updated := &models.BlogInput{
		Title:     "After",
		Content:   strings.TrimSpace(strings.Repeat("word ", 600)),
		Published: false,
	}
	ok, err := repo.Update(ctx, id, updated, "after")
	require.NoError(t, err)
	assert.True(t, ok)

	blog, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, blog)
	assert.Equal(t, "After", blog.Title)
	assert.Equal(t, "after", blog.Slug)
	assert.Equal(t, 3, blog.ReadTime)
	// Booleans flipped back to their zero value must actually be cleared.
	assert.False(t, blog.Published)
	assert.False(t, blog.IsFeatured)
}

func TestBlogRepoUpdate_AdvancesUpdatedAtOnly(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testInput("Stamped"), "stamped")
	require.NoError(t, err)
	before, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, before)

	time.Sleep(10 * time.Millisecond)

	ok, err := repo.Update(ctx, id, testInput("Stamped Again"), "stamped")
	require.NoError(t, err)
	require.True(t, ok)

	after, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "updated_at must advance on update")
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt), "created_at must never move")
}

func TestBlogRepoToggle_AdvancesUpdatedAtOnly(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testInput("Stamped Toggle"), "stamped-toggle")
	require.NoError(t, err)
	before, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, before)

	time.Sleep(10 * time.Millisecond)

	_, found, err := repo.TogglePublished(ctx, id)
	require.NoError(t, err)
	require.True(t, found)

	after, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "updated_at must advance on toggle")
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt), "created_at must never move")
}

func TestBlogRepoUpdate_MissingID(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))

	ok, err := repo.Update(context.Background(), 9999, testInput("Nope"), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlogRepoDelete(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testInput("Doomed"), "doomed")
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	blog, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, blog)

	ok, err = repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlogRepoToggle_RoundTrip(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testInput("Toggle"), "toggle")
	require.NoError(t, err)

	value, found, err := repo.TogglePublished(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, value)

	value, found, err = repo.TogglePublished(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, value)

	value, found, err = repo.ToggleFeatured(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, value)

	// Two toggles restore the original row state.
	blog, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, blog)
	assert.True(t, blog.Published)
	assert.True(t, blog.IsFeatured)
}

func TestBlogRepoToggle_MissingID(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	_, found, err := repo.TogglePublished(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = repo.ToggleFeatured(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBlogRepoStoreFailuresSurfaceAsDatabaseErrors(t *testing.T) {
	pool := newTestPool(t)
	repo := NewBlogRepo(pool)
	ctx := context.Background()

	db, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Exec("DROP TABLE blogs").Error)

	_, err = repo.FindAll(ctx, false, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrDatabaseQuery))
	assert.Equal(t, http.StatusInternalServerError, errs.StatusCode(err))

	_, err = repo.Create(ctx, testInput("Orphan"), "orphan")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, errs.StatusCode(err))
}

func TestBlogRepoBulkSetPublished(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	draft1 := testInput("One")
	draft1.Published = false
	id1, err := repo.Create(ctx, draft1, "bulk-one")
	require.NoError(t, err)

	draft2 := testInput("Two")
	draft2.Published = false
	id2, err := repo.Create(ctx, draft2, "bulk-two")
	require.NoError(t, err)

	count, err := repo.BulkSetPublished(ctx, nil, true)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Nonexistent IDs are skipped, not an error.
	count, err = repo.BulkSetPublished(ctx, []int{id1, id2, 9999}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	published, err := repo.FindAll(ctx, true, 0)
	require.NoError(t, err)
	assert.Len(t, published, 2)
}

func TestBlogRepoBulkDelete(t *testing.T) {
	repo := NewBlogRepo(newTestPool(t))
	ctx := context.Background()

	id1, err := repo.Create(ctx, testInput("One"), "del-one")
	require.NoError(t, err)
	id2, err := repo.Create(ctx, testInput("Two"), "del-two")
	require.NoError(t, err)

	count, err := repo.BulkDelete(ctx, []int{})
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.BulkDelete(ctx, []int{id1, 9999})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	remaining, err := repo.FindAll(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, id2, remaining[0].ID)
}
