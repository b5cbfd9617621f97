// Package store maps the schema-less documents of the docstore into the
// typed entities of the models package. Each store owns one collection
// and exposes typed methods; nothing above this layer sees raw fields.
package store

import (
	"errors"

	"inkwell/internal/docstore"
)

// Collection names.
const (
	CollectionPosts      = "posts"
	CollectionProfiles   = "profiles"
	CollectionComments   = "comments"
	CollectionLikes      = "likes"
	CollectionCategories = "categories"
	CollectionUsers      = "users"
)

var (
	// ErrSlugTaken is returned when a post or category slug is already in use.
	ErrSlugTaken = errors.New("slug already taken")

	// ErrDuplicate is returned when a record that must be unique already exists.
	ErrDuplicate = errors.New("record already exists")
)

// Constraints returns the unique constraints the migrations create as
// indexes, for use with docstore.NewMemory.
func Constraints() []docstore.Unique {
	return []docstore.Unique{
		{Collection: CollectionPosts, Fields: []string{"slug"}},
		{Collection: CollectionLikes, Fields: []string{"postId", "userId"}},
		{Collection: CollectionCategories, Fields: []string{"slug"}},
		{Collection: CollectionUsers, Fields: []string{"email"}, Fold: true},
	}
}

// Stores bundles every typed store over one document database.
type Stores struct {
	Posts      *PostStore
	Profiles   *ProfileStore
	Comments   *CommentStore
	Likes      *LikeStore
	Categories *CategoryStore
	Users      *UserStore
}

// New creates all stores over db.
func New(db docstore.DB) *Stores {
	return &Stores{
		Posts:      NewPostStore(db),
		Profiles:   NewProfileStore(db),
		Comments:   NewCommentStore(db),
		Likes:      NewLikeStore(db),
		Categories: NewCategoryStore(db),
		Users:      NewUserStore(db),
	}
}

// mapConflict replaces docstore.ErrConflict with target, keeping any
// other error unchanged.
func mapConflict(err, target error) error {
	if errors.Is(err, docstore.ErrConflict) {
		return target
	}
	return err
}

func str(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func optStr(f docstore.Fields, key string) *string {
	s, ok := f[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func num(f docstore.Fields, key string) int {
	switch v := f[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func boolean(f docstore.Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func strList(f docstore.Fields, key string) []string {
	raw, _ := f[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// nullable stores empty strings as JSON null so optional references
// filter the same whether unset or cleared.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
