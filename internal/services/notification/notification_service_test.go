package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/mealplan-service/internal/adapters/memory"
	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/internal/domain/ports"
	"github.com/kevin07696/mealplan-service/internal/testutil/mocks"
	"github.com/kevin07696/mealplan-service/pkg/resilience"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newService(push ports.PushSink) (*Service, *memory.Store) {
	store := memory.NewStore()
	svc := NewService(store.Notifications(), push, timeutil.NewFixedClock(now), mocks.NewMockLogger()).
		WithBackoff(&resilience.FixedBackoff{Delay: time.Millisecond}, 3)
	return svc, store
}

func TestSend_StoresAndPushes(t *testing.T) {
	push := &mocks.RecordingPush{}
	svc, store := newService(push)

	n := &domain.Notification{RecipientID: "user-1", Type: domain.NotificationSystem, Title: "Hello", Message: "World"}
	require.NoError(t, svc.Send(context.Background(), n))

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, now, n.CreatedAt)

	require.Len(t, push.Calls, 1)
	assert.Equal(t, "user:user-1", push.Calls[0].Room)
	assert.Equal(t, EventNotification, push.Calls[0].Event)

	inbox, err := store.Notifications().ListByRecipient(context.Background(), "user-1", now, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Hello", inbox[0].Title)
}

func TestSend_DeferredIsStoredNotPushed(t *testing.T) {
	push := &mocks.RecordingPush{}
	svc, _ := newService(push)

	later := now.AddDate(0, 0, 4)
	require.NoError(t, svc.Send(context.Background(), &domain.Notification{
		RecipientID:  "user-1",
		Type:         domain.NotificationSubscriptionReminder,
		Title:        "Renewal",
		DeliverAfter: &later,
	}))
	assert.Empty(t, push.Calls)

	inbox, err := svc.ListNotifications(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestSend_RetriesPush(t *testing.T) {
	push := &mocks.RecordingPush{FailTimes: 2, Err: errors.New("write: broken pipe")}
	svc, _ := newService(push)

	require.NoError(t, svc.Send(context.Background(), &domain.Notification{RecipientID: "user-1", Title: "x"}))
	assert.Equal(t, 3, push.Attempts)
	assert.Len(t, push.Calls, 1)
}

func TestSend_PushExhaustedIsDependencyError(t *testing.T) {
	push := &mocks.RecordingPush{FailTimes: 10, Err: errors.New("hub closed")}
	svc, store := newService(push)

	err := svc.Send(context.Background(), &domain.Notification{RecipientID: "user-1", Title: "x"})
	require.Error(t, err)
	assert.True(t, domain.IsDependencyError(err))
	assert.Equal(t, domain.ErrorCodePushFailed, domain.GetErrorCode(err))

	// the inbox entry survives a failed push
	inbox, _ := store.Notifications().ListByRecipient(context.Background(), "user-1", now, 10)
	assert.Len(t, inbox, 1)
}

func TestSend_NoRecipient(t *testing.T) {
	svc, _ := newService(nil)
	err := svc.Send(context.Background(), &domain.Notification{Title: "x"})
	assert.True(t, domain.IsDependencyError(err))
}

func TestSend_TruncatesLongText(t *testing.T) {
	svc, _ := newService(nil)
	n := &domain.Notification{RecipientID: "user-1", Title: strings.Repeat("t", 150), Message: strings.Repeat("m", 600)}
	require.NoError(t, svc.Send(context.Background(), n))
	assert.Len(t, n.Title, 100)
	assert.Len(t, n.Message, 500)
}

func TestInbox_ListAndMarkRead(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, svc.Send(ctx, &domain.Notification{RecipientID: "user-1", Title: title}))
	}

	list, err := svc.ListNotifications(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Title)

	require.NoError(t, svc.MarkRead(ctx, list[0].ID, "user-1"))
	err = svc.MarkRead(ctx, list[1].ID, "user-2")
	assert.True(t, domain.IsNotFoundError(err))

	_, err = svc.ListNotifications(ctx, "", 10)
	assert.True(t, domain.IsValidationError(err))
}
