package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListConflicts_OrderedByCreationDescending(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertConflict(ctx, Conflict{ID: "c1", TaskID: "t1", ConflictRelPath: "a (1).txt", OriginalRelPath: "a.txt", Reason: "both_modified", CreatedAtMs: 100}))
	require.NoError(t, s.InsertConflict(ctx, Conflict{ID: "c2", TaskID: "t1", ConflictRelPath: "a (2).txt", OriginalRelPath: "a.txt", Reason: "both_modified", CreatedAtMs: 200}))

	conflicts, err := s.ListConflicts(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	require.Equal(t, "c2", conflicts[0].ID)
	require.Equal(t, "c1", conflicts[1].ID)
}

func TestListConflicts_EmptyTaskIDListsAll(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertConflict(ctx, Conflict{ID: "c1", TaskID: "t1", ConflictRelPath: "a.txt", OriginalRelPath: "a.txt", Reason: "both_modified", CreatedAtMs: 1}))
	require.NoError(t, s.InsertConflict(ctx, Conflict{ID: "c2", TaskID: "t2", ConflictRelPath: "b.txt", OriginalRelPath: "b.txt", Reason: "both_modified", CreatedAtMs: 2}))

	conflicts, err := s.ListConflicts(ctx, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
}

func TestDeleteConflict_ClearsRow(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertConflict(ctx, Conflict{ID: "c1", TaskID: "t1", ConflictRelPath: "a.txt", OriginalRelPath: "a.txt", Reason: "both_modified", CreatedAtMs: 1}))
	require.NoError(t, s.DeleteConflict(ctx, "t1", "a.txt"))

	conflicts, err := s.ListConflicts(ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, conflicts)
}
