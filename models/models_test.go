package models

import (
	"strings"
	"sync"
	"testing"

	"qrono/config"
	"qrono/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setupOnce sync.Once

func setupDB(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		config.SQLITE_FILE = "file:models_test?mode=memory&cache=shared"
		db.Init()
		sqlDB, err := db.Instance.DB()
		if err != nil {
			panic(err)
		}
		// A single connection keeps the shared in-memory DB stable under
		// the concurrent cover lookups
		sqlDB.SetMaxOpenConns(1)
		Init()
	})
	for _, table := range []string{"pending_blobs", "photos", "memories", "albums", "users"} {
		require.NoError(t, db.Instance.Exec("DELETE FROM "+table).Error)
	}
}

func pendingPaths(t *testing.T) []string {
	t.Helper()
	var pending []PendingBlob
	require.NoError(t, db.Instance.Find(&pending).Error)
	paths := []string{}
	for _, p := range pending {
		paths = append(paths, p.Path)
	}
	return paths
}

func TestUserRegisterAndLogin(t *testing.T) {
	setupDB(t)

	alice, err := UserRegister("alice", "secret123")
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.True(t, strings.HasPrefix(alice.Password, "$2"), "password must be stored as a bcrypt digest")
	assert.NotContains(t, alice.Password, "secret123")

	_, err = UserRegister("alice", "other")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	u, err := UserLogin("alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = UserLogin("alice", "wrongpw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = UserLogin("nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAlbumOwnershipIsolation(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	bob, _ := UserRegister("bob", "pw")

	album, err := AlbumCreate(alice.ID, "Trip", "", false, "")
	require.NoError(t, err)

	_, err = AlbumGet(bob.ID, album.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	title := "stolen"
	_, err = AlbumUpdate(bob.ID, album.ID, AlbumPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, AlbumDelete(bob.ID, album.ID), ErrNotFound)

	// The owner still sees the unchanged album
	got, err := AlbumGet(alice.ID, album.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Title)
}

func TestAlbumList_NewestFirst(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	bob, _ := UserRegister("bob", "pw")

	first, _ := AlbumCreate(alice.ID, "first", "", false, "")
	second, _ := AlbumCreate(alice.ID, "second", "", true, "")
	_, _ = AlbumCreate(bob.ID, "bobs", "", false, "")

	albums, err := AlbumList(alice.ID)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, second.ID, albums[0].ID)
	assert.Equal(t, first.ID, albums[1].ID)
}

func TestAlbumPartialUpdate(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "desc", true, "covers/old.jpg")

	newTitle := "Summer Trip"
	updated, err := AlbumUpdate(alice.ID, album.ID, AlbumPatch{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Summer Trip", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.True(t, updated.Visible)
	assert.Equal(t, "covers/old.jpg", updated.CoverPath)
	assert.Empty(t, pendingPaths(t), "no cover change, nothing to clean up")

	newCover := "covers/new.jpg"
	updated, err = AlbumUpdate(alice.ID, album.ID, AlbumPatch{CoverPath: &newCover})
	require.NoError(t, err)
	assert.Equal(t, "covers/new.jpg", updated.CoverPath)
	assert.Equal(t, []string{"covers/old.jpg"}, pendingPaths(t), "replaced cover is scheduled for deletion")
}

func TestAlbumDeleteCascade(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "", false, "covers/c.jpg")

	m1, err := MemoryCreate(alice.ID, album.ID, "Day 1", "", []PhotoUpload{
		{Path: "photos/a.jpg", ThumbPath: "thumbs/a.jpg"},
		{Path: "photos/b.jpg", ThumbPath: "thumbs/b.jpg"},
	})
	require.NoError(t, err)
	m2, err := MemoryCreate(alice.ID, album.ID, "Day 2", "", []PhotoUpload{
		{Path: "photos/c.jpg"},
	})
	require.NoError(t, err)

	require.NoError(t, AlbumDelete(alice.ID, album.ID))

	_, err = AlbumGet(alice.ID, album.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = MemoryGet(alice.ID, m1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = MemoryGet(alice.ID, m2.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var photoCount, memoryCount int64
	db.Instance.Model(&Photo{}).Count(&photoCount)
	db.Instance.Model(&Memory{}).Count(&memoryCount)
	assert.Zero(t, photoCount, "cascade must remove all photo rows")
	assert.Zero(t, memoryCount, "cascade must remove all memory rows")

	assert.ElementsMatch(t, []string{
		"covers/c.jpg",
		"photos/a.jpg", "thumbs/a.jpg",
		"photos/b.jpg", "thumbs/b.jpg",
		"photos/c.jpg",
	}, pendingPaths(t), "every blob in the subtree is scheduled for deletion")
}

func TestMemoryCreateChecksAlbumOwnership(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	bob, _ := UserRegister("bob", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "", false, "")

	_, err := MemoryCreate(bob.ID, album.ID, "intruder", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = MemoryCreate(alice.ID, album.ID+1000, "nowhere", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	summaries, err := MemoryListForAlbum(alice.ID, album.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestMemoryAdditiveUpdate(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "", false, "")
	memory, err := MemoryCreate(alice.ID, album.ID, "Day 1", "sunny", []PhotoUpload{
		{Path: "photos/a.jpg", ThumbPath: "thumbs/a.jpg"},
		{Path: "photos/b.jpg", ThumbPath: "thumbs/b.jpg"},
	})
	require.NoError(t, err)

	loaded, err := MemoryGet(alice.ID, memory.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Photos, 2)
	photoA, photoB := loaded.Photos[0], loaded.Photos[1]

	// No-op on the photo set: only title and diary entry change
	updated, err := MemoryUpdate(alice.ID, memory.ID, "Day One", "rainy", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Day One", updated.Title)
	assert.Equal(t, "rainy", updated.DiaryEntry)
	require.Len(t, updated.Photos, 2)
	assert.Equal(t, photoA.ID, updated.Photos[0].ID)
	assert.Equal(t, photoB.ID, updated.Photos[1].ID)
	assert.Empty(t, pendingPaths(t))

	// Drop A, add C: additive, B is untouched
	updated, err = MemoryUpdate(alice.ID, memory.ID, "Day One", "rainy",
		[]uint64{photoA.ID}, []PhotoUpload{{Path: "photos/c.jpg", ThumbPath: "thumbs/c.jpg"}})
	require.NoError(t, err)
	require.Len(t, updated.Photos, 2)
	assert.Equal(t, photoB.ID, updated.Photos[0].ID)
	assert.Equal(t, "photos/b.jpg", updated.Photos[0].Path)
	assert.Equal(t, "photos/c.jpg", updated.Photos[1].Path)
	assert.ElementsMatch(t, []string{"photos/a.jpg", "thumbs/a.jpg"}, pendingPaths(t))
}

func TestMemoryUpdateIgnoresForeignPhotoIDs(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "", false, "")
	m1, _ := MemoryCreate(alice.ID, album.ID, "Day 1", "", []PhotoUpload{{Path: "photos/a.jpg"}})
	m2, _ := MemoryCreate(alice.ID, album.ID, "Day 2", "", []PhotoUpload{{Path: "photos/b.jpg"}})

	other, err := MemoryGet(alice.ID, m2.ID)
	require.NoError(t, err)
	require.Len(t, other.Photos, 1)

	// Deleting m2's photo through m1 must not touch it
	_, err = MemoryUpdate(alice.ID, m1.ID, "Day 1", "", []uint64{other.Photos[0].ID}, nil)
	require.NoError(t, err)

	other, err = MemoryGet(alice.ID, m2.ID)
	require.NoError(t, err)
	assert.Len(t, other.Photos, 1)
	assert.Empty(t, pendingPaths(t))
}

func TestMemoryDelete(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	bob, _ := UserRegister("bob", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "", false, "")
	memory, _ := MemoryCreate(alice.ID, album.ID, "Day 1", "", []PhotoUpload{
		{Path: "photos/a.jpg", ThumbPath: "thumbs/a.jpg"},
	})

	assert.ErrorIs(t, MemoryDelete(bob.ID, memory.ID), ErrNotFound)
	require.NoError(t, MemoryDelete(alice.ID, memory.ID))

	_, err := MemoryGet(alice.ID, memory.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, MemoryDelete(alice.ID, memory.ID), ErrNotFound)
	assert.ElementsMatch(t, []string{"photos/a.jpg", "thumbs/a.jpg"}, pendingPaths(t))

	// Ids are never reused
	newer, err := MemoryCreate(alice.ID, album.ID, "Day 2", "", nil)
	require.NoError(t, err)
	assert.Greater(t, newer.ID, memory.ID)
}

func TestMemoryListForAlbumCovers(t *testing.T) {
	setupDB(t)
	alice, _ := UserRegister("alice", "pw")
	album, _ := AlbumCreate(alice.ID, "Trip", "", false, "")

	withPhotos, _ := MemoryCreate(alice.ID, album.ID, "Day 1", "", []PhotoUpload{
		{Path: "photos/a.jpg"},
		{Path: "photos/b.jpg"},
	})
	empty, _ := MemoryCreate(alice.ID, album.ID, "Day 2", "", nil)

	summaries, err := MemoryListForAlbum(alice.ID, album.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first
	assert.Equal(t, empty.ID, summaries[0].ID)
	assert.Empty(t, summaries[0].CoverPath, "memory without photos has no derived cover")
	assert.Equal(t, withPhotos.ID, summaries[1].ID)
	assert.Equal(t, "photos/a.jpg", summaries[1].CoverPath)
}
