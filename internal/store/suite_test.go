package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/core"
)

// testStoreSuite exercises the full Store contract against any backend.
func testStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("ConversationCRUD", func(t *testing.T) {
		conv, err := s.CreateConversation(ctx, "First chat", "gpt-4o")
		require.NoError(t, err)
		assert.NotZero(t, conv.ID)
		assert.Equal(t, "First chat", conv.Title)
		assert.Equal(t, "gpt-4o", conv.Model)
		assert.False(t, conv.UpdatedAt.Before(conv.CreatedAt))

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, conv.ID, got.ID)
		assert.Equal(t, conv.Title, got.Title)

		all, err := s.ListConversations(ctx)
		require.NoError(t, err)
		ids := make([]int64, 0, len(all))
		for _, c := range all {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, conv.ID)

		deleted, err := s.DeleteConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = s.GetConversation(ctx, conv.ID)
		assert.True(t, core.IsErrorType(err, core.ErrorTypeNotFound))
	})

	t.Run("GetConversationNotFound", func(t *testing.T) {
		_, err := s.GetConversation(ctx, 999999)
		require.Error(t, err)
		assert.True(t, core.IsErrorType(err, core.ErrorTypeNotFound))
	})

	t.Run("UpdateConversationPartial", func(t *testing.T) {
		conv, err := s.CreateConversation(ctx, "Old title", "gpt-4o")
		require.NoError(t, err)

		newTitle := "New title"
		updated, err := s.UpdateConversation(ctx, conv.ID, ConversationUpdate{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
		assert.Equal(t, "gpt-4o", updated.Model, "model must be unchanged")

		newModel := "deepseek-v3"
		updated, err = s.UpdateConversation(ctx, conv.ID, ConversationUpdate{Model: &newModel})
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title, "title must be unchanged")
		assert.Equal(t, "deepseek-v3", updated.Model)
	})

	t.Run("UpdateConversationNotFound", func(t *testing.T) {
		title := "x"
		_, err := s.UpdateConversation(ctx, 999999, ConversationUpdate{Title: &title})
		assert.True(t, core.IsErrorType(err, core.ErrorTypeNotFound))
	})

	t.Run("UpdatedAtMonotonic", func(t *testing.T) {
		conv, err := s.CreateConversation(ctx, "Timestamps", "gpt-4o")
		require.NoError(t, err)

		future := time.Now().UTC().Add(time.Hour)
		updated, err := s.UpdateConversation(ctx, conv.ID, ConversationUpdate{UpdatedAt: &future})
		require.NoError(t, err)
		assert.WithinDuration(t, future, updated.UpdatedAt, time.Second)

		// A touch with an earlier timestamp must not move updatedAt back.
		past := time.Now().UTC().Add(-time.Hour)
		updated, err = s.UpdateConversation(ctx, conv.ID, ConversationUpdate{UpdatedAt: &past})
		require.NoError(t, err)
		assert.False(t, updated.UpdatedAt.Before(conv.UpdatedAt))
		assert.WithinDuration(t, future, updated.UpdatedAt, time.Second)
	})

	t.Run("DeleteConversationAbsent", func(t *testing.T) {
		deleted, err := s.DeleteConversation(ctx, 999999)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("MessageOrdering", func(t *testing.T) {
		conv, err := s.CreateConversation(ctx, "Ordered", "gpt-4o")
		require.NoError(t, err)

		rt := int64(120)
		for i := 0; i < 3; i++ {
			_, err := s.CreateMessage(ctx, conv.ID, core.RoleUser, "question", nil)
			require.NoError(t, err)
			_, err = s.CreateMessage(ctx, conv.ID, core.RoleAssistant, "answer", &rt)
			require.NoError(t, err)
		}

		messages, err := s.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, messages, 6)
		for i, m := range messages {
			if i%2 == 0 {
				assert.Equal(t, core.RoleUser, m.Role)
				assert.Nil(t, m.ResponseTime)
			} else {
				assert.Equal(t, core.RoleAssistant, m.Role)
				require.NotNil(t, m.ResponseTime)
				assert.Equal(t, int64(120), *m.ResponseTime)
			}
			if i > 0 {
				assert.Greater(t, m.ID, messages[i-1].ID, "messages must be in creation order")
			}
		}

		// Idempotent read: a second listing returns the same sequence.
		again, err := s.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, again, len(messages))
		for i := range messages {
			assert.Equal(t, messages[i].ID, again[i].ID)
			assert.Equal(t, messages[i].Content, again[i].Content)
		}
	})

	t.Run("CreateMessageConversationAbsent", func(t *testing.T) {
		_, err := s.CreateMessage(ctx, 999999, core.RoleUser, "hello", nil)
		assert.True(t, core.IsErrorType(err, core.ErrorTypeNotFound))
	})

	t.Run("DeleteCascadesMessages", func(t *testing.T) {
		conv, err := s.CreateConversation(ctx, "Doomed", "gpt-4o")
		require.NoError(t, err)
		_, err = s.CreateMessage(ctx, conv.ID, core.RoleUser, "hello", nil)
		require.NoError(t, err)

		deleted, err := s.DeleteConversation(ctx, conv.ID)
		require.NoError(t, err)
		require.True(t, deleted)

		messages, err := s.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("ClearMessagesKeepsConversation", func(t *testing.T) {
		conv, err := s.CreateConversation(ctx, "Wiped", "gpt-4o")
		require.NoError(t, err)
		_, err = s.CreateMessage(ctx, conv.ID, core.RoleUser, "hello", nil)
		require.NoError(t, err)

		require.NoError(t, s.ClearMessages(ctx, conv.ID))

		messages, err := s.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		assert.Empty(t, messages)

		_, err = s.GetConversation(ctx, conv.ID)
		assert.NoError(t, err)
	})

	t.Run("Users", func(t *testing.T) {
		user, err := s.CreateUser(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)

		got, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "secret", got.Password)

		_, err = s.CreateUser(ctx, "alice", "other")
		assert.True(t, core.IsErrorType(err, core.ErrorTypeValidation))

		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.True(t, core.IsErrorType(err, core.ErrorTypeNotFound))
	})
}
