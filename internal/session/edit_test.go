package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginEdit_ReturnsOriginalAndTransitions(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	assert.Equal(t, Viewing, sess.State(TitleField))

	original, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	assert.Equal(t, "Fix login crash", original)
	assert.Equal(t, Editing, sess.State(TitleField))
	assert.Equal(t, Viewing, sess.State(DescriptionField))
}

func TestBeginEdit_SameFieldIsIdempotent(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	first, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	sess.SetPending("half-typed")

	again, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, Editing, sess.State(TitleField))
}

func TestBeginEdit_OtherFieldCommitsPendingValue(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	_, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	sess.SetPending("Renamed while typing")

	_, err = sess.BeginEdit(ctx, DescriptionField)
	require.NoError(t, err)

	assert.Equal(t, "Renamed while typing", sess.Working().Title)
	assert.Equal(t, Viewing, sess.State(TitleField))
	assert.Equal(t, Editing, sess.State(DescriptionField))

	// Deferred field: nothing hit the backend yet.
	assert.Zero(t, backend.count("UpdateIssueField"))
}

func TestBeginEdit_AutoCommitValidationBlocksNewSession(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	_, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	sess.SetPending("   ")

	_, err = sess.BeginEdit(ctx, DescriptionField)
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, Editing, sess.State(TitleField))
}

func TestCommitEdit_EqualValueIsNoOpCancel(t *testing.T) {
	backend := newFake()
	sess, notified := openSession(t, backend)
	ctx := context.Background()

	original, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)

	changed, err := sess.CommitEdit(ctx, original)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, Viewing, sess.State(TitleField))
	assert.False(t, sess.Dirty())
	assert.Empty(t, backend.calls)
	assert.Zero(t, *notified)
}

func TestCommitEdit_TrimsBeforeComparing(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	original, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)

	changed, err := sess.CommitEdit(ctx, "  "+original+"  ")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCommitEdit_EmptyTitleRejectedStaysEditing(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	_, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)

	_, err = sess.CommitEdit(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, Editing, sess.State(TitleField))
	assert.Equal(t, "Fix login crash", sess.Working().Title)
}

func TestCommitEdit_DescriptionMayBeEmpty(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	_, err := sess.BeginEdit(ctx, DescriptionField)
	require.NoError(t, err)

	changed, err := sess.CommitEdit(ctx, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "", sess.Working().Description)
}

func TestCommitEdit_TitleIsDeferredToSave(t *testing.T) {
	backend := newFake()
	sess, notified := openSession(t, backend)
	ctx := context.Background()

	_, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	changed, err := sess.CommitEdit(ctx, "Renamed")
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, "Renamed", sess.Working().Title)
	assert.Equal(t, "Fix login crash", sess.Baseline().Title)
	assert.Zero(t, backend.count("UpdateIssueField"))
	assert.Zero(t, *notified)
}

func TestCancelEdit_RestoresOriginal(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	_, err := sess.BeginEdit(ctx, TitleField)
	require.NoError(t, err)
	sess.SetPending("half-typed")

	original, err := sess.CancelEdit()
	require.NoError(t, err)
	assert.Equal(t, "Fix login crash", original)
	assert.Equal(t, Viewing, sess.State(TitleField))
	assert.Equal(t, "Fix login crash", sess.Working().Title)
}

func TestCancelEdit_WithoutSession(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)

	_, err := sess.CancelEdit()
	assert.ErrorIs(t, err, ErrNoEditSession)
}

func TestEditing_ReportsOpenSession(t *testing.T) {
	backend := newFake()
	sess, _ := openSession(t, backend)
	ctx := context.Background()

	_, _, open := sess.Editing()
	assert.False(t, open)

	_, err := sess.BeginEdit(ctx, DescriptionField)
	require.NoError(t, err)

	field, original, open := sess.Editing()
	assert.True(t, open)
	assert.Equal(t, DescriptionField, field)
	assert.Equal(t, "Stack trace attached", original)
}
