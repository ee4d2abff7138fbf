package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
	"github.com/janhq/agent-middleware/internal/utils/ptr"
)

func TestListOptions_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"defaults", ListOptions{}, ListOptions{Limit: DefaultListLimit}},
		{"negative", ListOptions{Limit: -1, Offset: -5}, ListOptions{Limit: DefaultListLimit}},
		{"capped", ListOptions{Limit: 1000, Offset: 3}, ListOptions{Limit: MaxListLimit, Offset: 3}},
		{"kept", ListOptions{Limit: 10, Offset: 20}, ListOptions{Limit: 10, Offset: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalized())
		})
	}
}

func TestNextActivity(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(time.Second), nextActivity(base, base.Add(time.Second)))
	assert.Equal(t, base.Add(time.Microsecond), nextActivity(base, base))
	// clock stepped backwards
	assert.Equal(t, base.Add(time.Microsecond), nextActivity(base, base.Add(-time.Minute)))
}

type noopTx struct{}

func (noopTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(nil, noopTx{}, nil, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"blank thread", CreateParams{ExternalThreadID: "  "}},
		{"thread too long", CreateParams{ExternalThreadID: strings.Repeat("t", maxThreadIDLength+1)}},
		{"title too long", CreateParams{ExternalThreadID: "ok", Title: ptr.ToString(strings.Repeat("x", maxTitleLength+1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Create(ctx, 1, tt.params)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
		})
	}
}

func TestTouchByThread_RejectsBlankThread(t *testing.T) {
	svc := NewService(nil, noopTx{}, nil, zerolog.Nop())

	_, err := svc.TouchByThread(context.Background(), 1, "")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

// activityRepo keeps one conversation and applies AdvanceLastMessageAt with the same guard as
// the SQL repository. beforeAdvance runs once, ahead of the first write attempt.
type activityRepo struct {
	Repository
	conv          Conversation
	finds         int
	beforeAdvance func()
	neverAdvance  bool
}

func (r *activityRepo) FindByID(_ context.Context, identityID, id uint) (*Conversation, error) {
	r.finds++
	if identityID != r.conv.IdentityID || id != r.conv.ID {
		return nil, nil
	}
	c := r.conv
	return &c, nil
}

func (r *activityRepo) AdvanceLastMessageAt(_ context.Context, id uint, at time.Time) (bool, error) {
	if hook := r.beforeAdvance; hook != nil {
		r.beforeAdvance = nil
		hook()
	}
	if r.neverAdvance || id != r.conv.ID || !r.conv.LastMessageAt.Before(at) {
		return false, nil
	}
	r.conv.LastMessageAt = at
	return true, nil
}

func newActivityService(repo Repository, now time.Time) *Service {
	svc := NewService(repo, noopTx{}, nil, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestTouch_ConcurrentWriterNeverMovesActivityBack(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &activityRepo{conv: Conversation{ID: 7, IdentityID: 1, CreatedAt: base, LastMessageAt: base}}

	slow := newActivityService(repo, base.Add(time.Second))
	fast := newActivityService(repo, base.Add(2*time.Second))

	// the slow writer read the row, then the fast writer commits before it writes
	var fastResult *Conversation
	repo.beforeAdvance = func() {
		var err error
		fastResult, err = fast.Touch(ctx, 1, 7)
		require.NoError(t, err)
	}

	slowResult, err := slow.Touch(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, fastResult)

	assert.Equal(t, base.Add(2*time.Second), fastResult.LastMessageAt)
	assert.True(t, slowResult.LastMessageAt.After(fastResult.LastMessageAt))
	assert.Equal(t, slowResult.LastMessageAt, repo.conv.LastMessageAt)
	assert.Equal(t, 3, repo.finds)
}

func TestTouch_GivesUpUnderContention(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &activityRepo{
		conv:         Conversation{ID: 7, IdentityID: 1, CreatedAt: base, LastMessageAt: base},
		neverAdvance: true,
	}
	svc := newActivityService(repo, base.Add(time.Second))

	_, err := svc.Touch(context.Background(), 1, 7)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
	assert.Equal(t, maxTouchAttempts, repo.finds)
	assert.Equal(t, base, repo.conv.LastMessageAt)
}
