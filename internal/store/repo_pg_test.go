package store_test

import (
	"context"
	"testing"
	"time"

	"voicenotes/internal/auth"
	"voicenotes/internal/dbtest"
	"voicenotes/internal/diary"
	"voicenotes/internal/domain"
	"voicenotes/internal/note"
	"voicenotes/internal/task"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(t *testing.T, gdb *gorm.DB) uint64 {
	t.Helper()
	u := &auth.User{ExternalID: "user_" + uuid.NewString(), Name: auth.PlaceholderName}
	created, err := (&auth.GormUserStore{DB: gdb}).CreateIfAbsent(context.Background(), u)
	require.NoError(t, err)
	require.True(t, created)
	return u.ID
}

func TestRepo_NoteLifecycle(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	repo := note.NewRepo(gdb)
	owner, other := newUser(t, gdb), newUser(t, gdb)

	first := &note.Note{UserID: owner, Title: "a", Content: "plan #work", Tags: pq.StringArray{"work"}}
	second := &note.Note{UserID: owner, Title: "b", Content: "groceries", Tags: pq.StringArray{}}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, &note.Note{UserID: other, Title: "c", Content: "x", Tags: pq.StringArray{}}))

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	svc := note.NewService(repo, discardLogger(), nil)
	tagged, err := svc.List(ctx, owner, note.ListFilter{Tag: "#Work"})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, first.ID, tagged[0].ID)

	found, err := svc.List(ctx, owner, note.ListFilter{Query: "GROC"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second.ID, found[0].ID)

	got, err := repo.Find(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"work"}, got.Tags)

	assert.ErrorIs(t, repo.Delete(ctx, first.ID, other), domain.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, first.ID, owner))
	_, err = repo.Find(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_TaskPartialUpdate(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	repo := task.NewRepo(gdb)
	owner := newUser(t, gdb)

	tk := &task.Task{UserID: owner, Description: "call bank", IsCompleted: true}
	require.NoError(t, repo.Create(ctx, tk))

	var got task.Task
	require.NoError(t, repo.Update(ctx, &got, tk.ID, owner, map[string]any{"is_completed": false}))
	assert.False(t, got.IsCompleted)
	assert.Equal(t, "call bank", got.Description)

	err := repo.Update(ctx, &got, tk.ID, owner+1000, map[string]any{"is_completed": true})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var same task.Task
	require.NoError(t, repo.Update(ctx, &same, tk.ID, owner, map[string]any{}))
	assert.Equal(t, "call bank", same.Description)
	assert.False(t, same.IsCompleted)

	err = repo.Update(ctx, &same, tk.ID, owner+1000, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Update(ctx, &got, tk.ID, owner, map[string]any{"description": ""}))
	assert.Equal(t, "", got.Description)
}

func TestRepo_DiaryOrdersByDate(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	repo := diary.NewRepo(gdb)
	owner := newUser(t, gdb)

	older := &diary.Entry{UserID: owner, Content: "older", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &diary.Entry{UserID: owner, Content: "newer", Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))

	list, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Content)
}
