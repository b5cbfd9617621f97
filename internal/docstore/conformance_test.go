// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/docstore"
)

// testUniques mirrors the unique indexes created by the migrations.
var testUniques = []docstore.Unique{
	{Collection: "posts", Fields: []string{"slug"}},
	{Collection: "likes", Fields: []string{"postId", "userId"}},
	{Collection: "users", Fields: []string{"email"}, Fold: true},
}

// runConformance exercises behaviour every DB implementation must share.
// Collections are randomized so runs against a shared database do not
// see each other's rows.
func runConformance(t *testing.T, db docstore.DB) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		d, err := db.Create(ctx, coll, "", docstore.Fields{"title": "Hello"})
		require.NoError(t, err)
		assert.NotEmpty(t, d.ID)
		assert.Equal(t, coll, d.Collection)
		assert.Equal(t, "Hello", d.Data["title"])
		assert.False(t, d.CreatedAt.IsZero())
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		d, err := db.Get(ctx, "test_"+uuid.NewString(), "nope")
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("numbers come back as float64", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		d, err := db.Create(ctx, coll, "n1", docstore.Fields{"viewCount": 3})
		require.NoError(t, err)

		got, err := db.Get(ctx, coll, d.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, float64(3), got.Data["viewCount"])
	})

	t.Run("update merges fields", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		_, err := db.Create(ctx, coll, "u1", docstore.Fields{"a": "1", "b": "2"})
		require.NoError(t, err)

		d, err := db.Update(ctx, coll, "u1", docstore.Fields{"b": "3", "c": "4"})
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, docstore.Fields{"a": "1", "b": "3", "c": "4"}, d.Data)
	})

	t.Run("update missing returns nil", func(t *testing.T) {
		d, err := db.Update(ctx, "test_"+uuid.NewString(), "ghost", docstore.Fields{"a": "1"})
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("delete removes document", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		_, err := db.Create(ctx, coll, "d1", nil)
		require.NoError(t, err)
		require.NoError(t, db.Delete(ctx, coll, "d1"))

		d, err := db.Get(ctx, coll, "d1")
		require.NoError(t, err)
		assert.Nil(t, d)

		// Deleting again is a no-op.
		require.NoError(t, db.Delete(ctx, coll, "d1"))
	})

	t.Run("list filters sorts and limits", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		seed := []docstore.Fields{
			{"status": "published", "views": 5, "title": "b"},
			{"status": "pending", "views": 1, "title": "a"},
			{"status": "published", "views": 9, "title": "c"},
			{"status": "published", "views": 2, "title": "d"},
		}
		for _, f := range seed {
			_, err := db.Create(ctx, coll, "", f)
			require.NoError(t, err)
		}

		docs, err := db.List(ctx, coll, docstore.Query{
			Filters: []docstore.Filter{docstore.Eq("status", "published")},
			Sort:    []docstore.Sort{{Field: "views", Desc: true}},
			Limit:   2,
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "c", docs[0].Data["title"])
		assert.Equal(t, "b", docs[1].Data["title"])

		docs, err = db.List(ctx, coll, docstore.Query{
			Filters: []docstore.Filter{docstore.Eq("status", "published")},
			Sort:    []docstore.Sort{{Field: "views"}},
			Offset:  1,
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].Data["title"])

		n, err := db.Count(ctx, coll, docstore.Eq("status", "published"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = db.Count(ctx, coll, docstore.Eq("views", 9))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("list without sort keeps creation order", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		for _, title := range []string{"first", "second", "third"} {
			_, err := db.Create(ctx, coll, "", docstore.Fields{"title": title})
			require.NoError(t, err)
		}
		docs, err := db.List(ctx, coll, docstore.Query{})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "first", docs[0].Data["title"])
		assert.Equal(t, "third", docs[2].Data["title"])
	})

	t.Run("filter by id", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		_, err := db.Create(ctx, coll, "x1", nil)
		require.NoError(t, err)
		_, err = db.Create(ctx, coll, "x2", nil)
		require.NoError(t, err)

		docs, err := db.List(ctx, coll, docstore.Query{Filters: []docstore.Filter{docstore.Eq(docstore.FieldID, "x2")}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "x2", docs[0].ID)
	})

	t.Run("invalid field is rejected", func(t *testing.T) {
		_, err := db.List(ctx, "test_"+uuid.NewString(), docstore.Query{
			Filters: []docstore.Filter{docstore.Eq("title'; DROP TABLE documents; --", "x")},
		})
		assert.ErrorIs(t, err, docstore.ErrInvalidField)
	})

	t.Run("unique slug conflicts", func(t *testing.T) {
		slug := "conformance-" + uuid.NewString()
		first, err := db.Create(ctx, "posts", "", docstore.Fields{"slug": slug})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Delete(ctx, "posts", first.ID) })

		_, err = db.Create(ctx, "posts", "", docstore.Fields{"slug": slug})
		assert.True(t, errors.Is(err, docstore.ErrConflict), "got %v", err)

		// Updating another document onto the same slug conflicts too.
		other, err := db.Create(ctx, "posts", "", docstore.Fields{"slug": slug + "-2"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Delete(ctx, "posts", other.ID) })
		_, err = db.Update(ctx, "posts", other.ID, docstore.Fields{"slug": slug})
		assert.ErrorIs(t, err, docstore.ErrConflict)
	})

	t.Run("unique pair conflicts", func(t *testing.T) {
		post := uuid.NewString()
		first, err := db.Create(ctx, "likes", "", docstore.Fields{"postId": post, "userId": "u1"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Delete(ctx, "likes", first.ID) })

		_, err = db.Create(ctx, "likes", "", docstore.Fields{"postId": post, "userId": "u1"})
		assert.ErrorIs(t, err, docstore.ErrConflict)

		second, err := db.Create(ctx, "likes", "", docstore.Fields{"postId": post, "userId": "u2"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Delete(ctx, "likes", second.ID) })
	})

	t.Run("unique email ignores case", func(t *testing.T) {
		email := uuid.NewString() + "@example.com"
		first, err := db.Create(ctx, "users", "", docstore.Fields{"email": email})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Delete(ctx, "users", first.ID) })

		_, err = db.Create(ctx, "users", "", docstore.Fields{"email": strings.ToUpper(email)})
		assert.ErrorIs(t, err, docstore.ErrConflict)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		coll := "test_" + uuid.NewString()
		_, err := db.Create(ctx, coll, "same", nil)
		require.NoError(t, err)
		_, err = db.Create(ctx, coll, "same", nil)
		assert.ErrorIs(t, err, docstore.ErrConflict)
	})
}
