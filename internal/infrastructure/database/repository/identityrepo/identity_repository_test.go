package identityrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/domain/profile"
	"github.com/janhq/agent-middleware/internal/domain/storage"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/databasetest"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/identityrepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/profilerepo"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
	"github.com/janhq/agent-middleware/internal/utils/ptr"
)

func TestIdentityRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := identityrepo.NewIdentityGormRepository(databasetest.Transactional(t))

	missing, err := repo.FindBySubject(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created := &identity.Identity{
		ExternalSubjectID: "user-1",
		Email:             ptr.ToString("u1@example.com"),
		CreatedAt:         storage.Now(),
	}
	require.NoError(t, repo.Create(ctx, created))
	require.NotZero(t, created.ID)

	bySubject, err := repo.FindBySubject(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, bySubject)
	assert.Equal(t, created.ID, bySubject.ID)
	assert.Equal(t, "u1@example.com", ptr.Deref(bySubject.Email))
	assert.Nil(t, bySubject.DisplayName)
	assert.True(t, created.CreatedAt.Equal(bySubject.CreatedAt))
	assert.Equal(t, time.UTC, bySubject.CreatedAt.Location())

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "user-1", byID.ExternalSubjectID)

	none, err := repo.FindByID(ctx, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestIdentityRepository_CreateDuplicateSubject(t *testing.T) {
	ctx := context.Background()
	repo := identityrepo.NewIdentityGormRepository(databasetest.Transactional(t))

	require.NoError(t, repo.Create(ctx, &identity.Identity{ExternalSubjectID: "dup", CreatedAt: storage.Now()}))

	second := &identity.Identity{ExternalSubjectID: "dup", CreatedAt: storage.Now()}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
	assert.Zero(t, second.ID)
}

func TestIdentityRepository_UpdateClaims(t *testing.T) {
	ctx := context.Background()
	repo := identityrepo.NewIdentityGormRepository(databasetest.Transactional(t))

	created := &identity.Identity{ExternalSubjectID: "user-2", CreatedAt: storage.Now()}
	require.NoError(t, repo.Create(ctx, created))

	require.NoError(t, repo.UpdateClaims(ctx, created.ID, ptr.ToString("new@example.com"), ptr.ToString("New Name")))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", ptr.Deref(found.Email))
	assert.Equal(t, "New Name", ptr.Deref(found.DisplayName))
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
}

func TestIdentityRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := databasetest.Transactional(t)
	identities := identityrepo.NewIdentityGormRepository(db)
	profiles := profilerepo.NewProfileGormRepository(db)
	conversations := conversationrepo.NewConversationGormRepository(db)

	owner := &identity.Identity{ExternalSubjectID: "owner", CreatedAt: storage.Now()}
	other := &identity.Identity{ExternalSubjectID: "other", CreatedAt: storage.Now()}
	require.NoError(t, identities.Create(ctx, owner))
	require.NoError(t, identities.Create(ctx, other))

	_, err := profiles.Upsert(ctx, owner.ID, profile.UpdateRequest{PreferredAgentInstructions: ptr.ToString("be brief")}, storage.Now())
	require.NoError(t, err)

	now := storage.Now()
	for _, c := range []*conversation.Conversation{
		{IdentityID: owner.ID, ExternalThreadID: "t-1", CreatedAt: now, LastMessageAt: now},
		{IdentityID: owner.ID, ExternalThreadID: "t-2", CreatedAt: now, LastMessageAt: now},
		{IdentityID: other.ID, ExternalThreadID: "t-3", CreatedAt: now, LastMessageAt: now},
	} {
		require.NoError(t, conversations.Create(ctx, c))
	}

	deleted, err := identities.Delete(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	p, err := profiles.FindByIdentityID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	ownerConvs, err := conversations.ListByIdentity(ctx, owner.ID, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, ownerConvs)

	otherConvs, err := conversations.ListByIdentity(ctx, other.ID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, otherConvs, 1)

	again, err := identities.Delete(ctx, owner.ID)
	require.NoError(t, err)
	assert.False(t, again)
}
