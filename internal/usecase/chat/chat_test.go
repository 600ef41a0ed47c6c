package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/field-booking/internal/infra/memory"
	"github.com/BruksfildServices01/field-booking/internal/models"
	chatuc "github.com/BruksfildServices01/field-booking/internal/usecase/chat"
	"github.com/BruksfildServices01/field-booking/internal/usecase/usecasetest"
)

func setup(t *testing.T) (*usecasetest.Fixture, *chatuc.Service, *models.Booking) {
	t.Helper()
	f := usecasetest.New(t)

	b := &models.Booking{
		UserID:  f.User.ID,
		OwnerID: f.Owner.ID,
		FieldID: f.Field.ID,
		SlotID:  f.Slot.ID,
		Status:  "confirmed",
	}
	require.NoError(t, f.Repo.CreateBooking(context.Background(), b))

	return f, chatuc.NewService(memory.NewChatRepository(f.Repo), f.Now), b
}

func TestOpenConversationOnlyOnce(t *testing.T) {
	f, svc, b := setup(t)
	ctx := context.Background()

	c1, err := svc.Open(ctx, f.User.ID, b.ID)
	require.NoError(t, err)
	c2, err := svc.Open(ctx, f.Owner.ID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, f.User.ID, c1.UserID)
	assert.Equal(t, f.Owner.ID, c1.OwnerID)

	_, err = svc.Open(ctx, f.Other.ID, b.ID)
	assert.EqualError(t, err, "booking_not_found")
}

func TestSendBumpsRecipientUnread(t *testing.T) {
	f, svc, b := setup(t)
	ctx := context.Background()

	c, err := svc.Open(ctx, f.User.ID, b.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, f.User.ID, c.ID, "Bonjour, le terrain a des vestiaires ?")
	require.NoError(t, err)
	f.Advance(time.Minute)
	_, err = svc.Send(ctx, f.User.ID, c.ID, "Merci !")
	require.NoError(t, err)

	owner, err := svc.Conversations(ctx, f.Owner.ID)
	require.NoError(t, err)
	require.Len(t, owner, 1)
	assert.Equal(t, 2, owner[0].UnreadCount)
	require.NotNil(t, owner[0].LastMessageAt)
	assert.Equal(t, usecasetest.T0.Add(time.Minute), *owner[0].LastMessageAt)

	user, err := svc.Conversations(ctx, f.User.ID)
	require.NoError(t, err)
	assert.Zero(t, user[0].UnreadCount)

	require.NoError(t, svc.MarkRead(ctx, f.Owner.ID, c.ID))
	owner, err = svc.Conversations(ctx, f.Owner.ID)
	require.NoError(t, err)
	assert.Zero(t, owner[0].UnreadCount)
}

func TestSendRejectsOutsidersAndBadBodies(t *testing.T) {
	f, svc, b := setup(t)
	ctx := context.Background()

	c, err := svc.Open(ctx, f.User.ID, b.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, f.Other.ID, c.ID, "salut")
	assert.EqualError(t, err, "conversation_not_found")

	_, err = svc.Send(ctx, f.User.ID, c.ID, "   ")
	assert.EqualError(t, err, "invalid_message")

	_, err = svc.Messages(ctx, f.Other.ID, c.ID, 0, 10)
	assert.EqualError(t, err, "conversation_not_found")

	assert.EqualError(t, svc.MarkRead(ctx, f.Other.ID, 999), "conversation_not_found")
}

func TestMessagesPagination(t *testing.T) {
	f, svc, b := setup(t)
	ctx := context.Background()

	c, err := svc.Open(ctx, f.User.ID, b.ID)
	require.NoError(t, err)

	var ids []uint
	for _, body := range []string{"un", "deux", "trois", "quatre", "cinq"} {
		m, err := svc.Send(ctx, f.Owner.ID, c.ID, body)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	page, err := svc.Messages(ctx, f.User.ID, c.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "cinq", page[0].Body)
	assert.Equal(t, "quatre", page[1].Body)

	page, err = svc.Messages(ctx, f.User.ID, c.ID, page[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, ids[0], page[2].ID)
}
