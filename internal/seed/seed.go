// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options controls how much demo data the factory produces.
type Options struct {
	// Posts is the number of posts to create.
	Posts int
	// Authors is the number of synthetic author identities to spread posts over.
	Authors int
	// MaxDays caps how far back created_at timestamps reach.
	MaxDays int
}

// Factory builds posts and persists them to the database.
type Factory struct {
	db      *gorm.DB
	opts    Options
	rng     *rand.Rand
	authors []string
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	if opts.Posts <= 0 {
		opts.Posts = 25
	}
	if opts.Authors <= 0 {
		opts.Authors = 3
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	gofakeit.Seed(time.Now().UnixNano())

	authors := make([]string, opts.Authors)
	for i := range authors {
		authors[i] = uuid.NewString()
	}

	return &Factory{
		db:      db,
		opts:    opts,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		authors: authors,
	}
}

var tagPool = []string{
	"go", "writing", "travel", "cooking", "music",
	"photography", "career", "notes", "books", "gardening",
}

// BuildPost constructs a post without persisting it.
func (f *Factory) BuildPost(overrides ...func(*models.Post)) *models.Post {
	title := gofakeit.Sentence(f.rng.Intn(5) + 3)
	author := f.authors[f.rng.Intn(len(f.authors))]

	post := &models.Post{
		Title:   title,
		Content: gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Slug:    validation.ToSlug(title),
		Author:  &author,
	}

	// realistic created_at spread
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	if f.rng.Intn(2) == 0 {
		date := post.CreatedAt.Format("2006-01-02")
		post.Date = &date
	}
	if f.rng.Intn(3) == 0 {
		cover := fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", gofakeit.UUID())
		post.Cover = &cover
	}

	tags := f.pickTags()
	if len(tags) > 0 {
		post.Tag = mustJSONTags(tags)
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) pickTags() []string {
	n := f.rng.Intn(4)
	picked := make([]string, 0, n)
	seen := map[string]struct{}{}
	for len(picked) < n {
		tag := tagPool[f.rng.Intn(len(tagPool))]
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		picked = append(picked, tag)
	}
	return picked
}

func mustJSONTags(tags []string) []byte {
	raw, _ := json.Marshal(tags)
	return raw
}

// Run creates the configured number of posts, skipping any whose derived slug
// collides with an existing one.
func (f *Factory) Run() (int, error) {
	created := 0
	for i := 0; i < f.opts.Posts; i++ {
		post := f.BuildPost()
		if err := f.db.Create(post).Error; err != nil {
			// Random sentences occasionally collide on slug; not worth failing
			// a seed run over.
			log.Printf("seed: skipping post %q: %v", post.Slug, err)
			continue
		}
		created++
	}
	return created, nil
}
