package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Blog represents a content record. The slug is the public identifier and is
// unique for the lifetime of the record; the numeric ID is the admin-facing
// identity.
type Blog struct {
	ID      int     `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Title   string  `json:"title" db:"title" gorm:"type:varchar(500);not null"`
	Slug    string  `json:"slug" db:"slug" gorm:"type:varchar(500);not null;uniqueIndex:idx_blogs_slug"`
	Content string  `json:"content" db:"content" gorm:"type:text;not null"`
	Excerpt *string `json:"excerpt,omitempty" db:"excerpt" gorm:"type:text"`

	Category *string        `json:"category,omitempty" db:"category" gorm:"type:varchar(100);index:idx_blogs_category"`
	Tags     datatypes.JSON `json:"tags" db:"tags" gorm:"type:jsonb;default:'[]'"`

	FeaturedImageURL *string `json:"featured_image_url,omitempty" db:"featured_image_url" gorm:"type:varchar(1000)"`

	AuthorName      *string `json:"author_name,omitempty" db:"author_name" gorm:"type:varchar(200)"`
	AuthorBio       *string `json:"author_bio,omitempty" db:"author_bio" gorm:"type:text"`
	AuthorAvatarURL *string `json:"author_avatar_url,omitempty" db:"author_avatar_url" gorm:"type:varchar(1000)"`
	AuthorTwitter   *string `json:"author_twitter,omitempty" db:"author_twitter" gorm:"type:varchar(200)"`
	AuthorLinkedin  *string `json:"author_linkedin,omitempty" db:"author_linkedin" gorm:"type:varchar(200)"`
	AuthorFacebook  *string `json:"author_facebook,omitempty" db:"author_facebook" gorm:"type:varchar(200)"`
	AuthorInstagram *string `json:"author_instagram,omitempty" db:"author_instagram" gorm:"type:varchar(200)"`
	AuthorGithub    *string `json:"author_github,omitempty" db:"author_github" gorm:"type:varchar(200)"`
	AuthorWebsite   *string `json:"author_website,omitempty" db:"author_website" gorm:"type:varchar(500)"`

	CTAText     *string `json:"cta_text,omitempty" db:"cta_text" gorm:"column:cta_text;type:varchar(200)"`
	CTAURL      *string `json:"cta_url,omitempty" db:"cta_url" gorm:"column:cta_url;type:varchar(1000)"`
	CTAStyle    *string `json:"cta_style,omitempty" db:"cta_style" gorm:"column:cta_style;type:varchar(20);default:primary"`
	CTAPosition *string `json:"cta_position,omitempty" db:"cta_position" gorm:"column:cta_position;type:varchar(20);default:bottom"`

	Published  bool `json:"published" db:"published" gorm:"not null;default:false;index:idx_blogs_published"`
	IsFeatured bool `json:"is_featured" db:"is_featured" gorm:"not null;default:false;index:idx_blogs_featured"`
	ReadTime   int  `json:"read_time" db:"read_time" gorm:"not null;default:0"`
	ViewCount  int  `json:"view_count" db:"view_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"not null;autoCreateTime;index:idx_blogs_created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (Blog) TableName() string {
	return "blogs"
}

// TagList decodes the stored tag column. Always returns a non-nil slice.
func (b *Blog) TagList() []string {
	if len(b.Tags) == 0 {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal(b.Tags, &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// ToListItem projects a blog onto the compact shape used by listings and the
// page-data aggregate.
func (b *Blog) ToListItem() BlogListItem {
	return BlogListItem{
		ID:               b.ID,
		Title:            b.Title,
		Slug:             b.Slug,
		Excerpt:          b.Excerpt,
		Category:         b.Category,
		Tags:             b.TagList(),
		FeaturedImageURL: b.FeaturedImageURL,
		AuthorName:       b.AuthorName,
		ReadTime:         b.ReadTime,
		Published:        b.Published,
		IsFeatured:       b.IsFeatured,
		CreatedAt:        b.CreatedAt,
	}
}

// BlogInput carries the writable fields for create and update operations.
type BlogInput struct {
	Title   string  `json:"title" validate:"required,min=1,max=500"`
	Content string  `json:"content" validate:"required,min=1"`
	Excerpt *string `json:"excerpt,omitempty" validate:"omitempty,max=1000"`
	Slug    string  `json:"slug,omitempty" validate:"omitempty,max=200"`

	Category *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags     []string `json:"tags,omitempty"`

	FeaturedImageURL *string `json:"featured_image_url,omitempty" validate:"omitempty,max=500"`

	AuthorName      *string `json:"author_name,omitempty" validate:"omitempty,max=200"`
	AuthorBio       *string `json:"author_bio,omitempty" validate:"omitempty,max=1000"`
	AuthorAvatarURL *string `json:"author_avatar_url,omitempty" validate:"omitempty,max=500"`
	AuthorTwitter   *string `json:"author_twitter,omitempty" validate:"omitempty,max=200"`
	AuthorLinkedin  *string `json:"author_linkedin,omitempty" validate:"omitempty,max=200"`
	AuthorFacebook  *string `json:"author_facebook,omitempty" validate:"omitempty,max=200"`
	AuthorInstagram *string `json:"author_instagram,omitempty" validate:"omitempty,max=200"`
	AuthorGithub    *string `json:"author_github,omitempty" validate:"omitempty,max=200"`
	AuthorWebsite   *string `json:"author_website,omitempty" validate:"omitempty,max=200"`

	CTAText     *string `json:"cta_text,omitempty" validate:"omitempty,max=100"`
	CTAURL      *string `json:"cta_url,omitempty" validate:"omitempty,max=500"`
	CTAStyle    *string `json:"cta_style,omitempty" validate:"omitempty,max=50"`
	CTAPosition *string `json:"cta_position,omitempty" validate:"omitempty,max=50"`

	Published  bool `json:"published"`
	IsFeatured bool `json:"is_featured"`
}

// BlogListItem is the compact listing shape (admin dashboard and public
// landing surfaces).
type BlogListItem struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Excerpt          *string   `json:"excerpt,omitempty"`
	Category         *string   `json:"category,omitempty"`
	Tags             []string  `json:"tags"`
	FeaturedImageURL *string   `json:"featured_image_url,omitempty"`
	AuthorName       *string   `json:"author_name,omitempty"`
	ReadTime         int       `json:"read_time"`
	Published        bool      `json:"published"`
	IsFeatured       bool      `json:"is_featured"`
	CreatedAt        time.Time `json:"created_at"`
}

// BlogPageData aggregates everything the public landing page needs, so one
// cache hit serves the featured blog, the latest list, the popular list and
// the category list together.
type BlogPageData struct {
	Featured   *BlogListItem  `json:"featured"`
	Latest     []BlogListItem `json:"latest"`
	Popular    []BlogListItem `json:"popular"`
	Categories []string       `json:"categories"`
}
