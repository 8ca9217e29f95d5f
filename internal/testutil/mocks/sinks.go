package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// RecordingNotifier captures sent notifications. Err, when set, is returned
// from every Send after recording.
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []*domain.Notification
	Err  error
}

func (n *RecordingNotifier) Send(ctx context.Context, notification *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	cp := *notification
	n.Sent = append(n.Sent, &cp)
	return n.Err
}

// OfType returns the captured notifications with type t
func (n *RecordingNotifier) OfType(t domain.NotificationType) []*domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*domain.Notification
	for _, s := range n.Sent {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// For returns the captured notifications addressed to recipientID
func (n *RecordingNotifier) For(recipientID string) []*domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*domain.Notification
	for _, s := range n.Sent {
		if s.RecipientID == recipientID {
			out = append(out, s)
		}
	}
	return out
}

// MockEmailSink mocks ports.EmailSink
type MockEmailSink struct {
	mock.Mock
}

func (m *MockEmailSink) SendReminder(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error {
	args := m.Called(ctx, to, sub, plan)
	return args.Error(0)
}

func (m *MockEmailSink) SendRenewed(ctx context.Context, to *domain.Customer, sub *domain.Subscription, plan *domain.MealPlan) error {
	args := m.Called(ctx, to, sub, plan)
	return args.Error(0)
}

// PushCall is one captured realtime push
type PushCall struct {
	Room    string
	Event   string
	Payload interface{}
}

// RecordingPush captures pushes. FailTimes makes the first N calls return Err.
type RecordingPush struct {
	mu        sync.Mutex
	Calls     []PushCall
	Attempts  int
	FailTimes int
	Err       error
}

func (p *RecordingPush) Push(ctx context.Context, room, event string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Attempts++
	if p.Attempts <= p.FailTimes {
		return p.Err
	}
	p.Calls = append(p.Calls, PushCall{Room: room, Event: event, Payload: payload})
	return nil
}
