package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/domain/chat"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type bookingGetter interface {
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
}

type chatState struct {
	seq      uint
	convs    map[uint]models.Conversation
	messages map[uint]models.Message
	unread   map[[2]uint]int
}

func (s *chatState) clone() *chatState {
	return &chatState{
		seq:      s.seq,
		convs:    maps.Clone(s.convs),
		messages: maps.Clone(s.messages),
		unread:   maps.Clone(s.unread),
	}
}

type ChatRepository struct {
	mu       sync.Mutex
	st       *chatState
	bookings bookingGetter
}

func NewChatRepository(bookings bookingGetter) *ChatRepository {
	return &ChatRepository{
		st: &chatState{
			convs:    map[uint]models.Conversation{},
			messages: map[uint]models.Message{},
			unread:   map[[2]uint]int{},
		},
		bookings: bookings,
	}
}

var _ chat.Repository = (*ChatRepository)(nil)

func (r *ChatRepository) Transaction(ctx context.Context, fn func(tx chat.Repository) error) error {
	r.mu.Lock()
	snap := r.st.clone()
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.st = snap
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *ChatRepository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return r.bookings.GetBooking(ctx, id)
}

func (r *ChatRepository) GetConversation(_ context.Context, id uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *ChatRepository) GetConversationByBooking(_ context.Context, bookingID uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.st.convs {
		if c.BookingID == bookingID {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *ChatRepository) CreateConversation(_ context.Context, c *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.st.convs {
		if existing.BookingID == c.BookingID {
			*c = existing
			return nil
		}
	}
	r.st.seq++
	c.ID = r.st.seq
	r.st.convs[c.ID] = *c
	return nil
}

func (r *ChatRepository) TouchConversation(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.convs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LastMessageAt = &at
	r.st.convs[id] = c
	return nil
}

func (r *ChatRepository) CreateMessage(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.seq++
	m.ID = r.st.seq
	r.st.messages[m.ID] = *m
	return nil
}

func (r *ChatRepository) ListMessages(_ context.Context, conversationID, beforeID uint, limit int) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.st.messages {
		if m.ConversationID == conversationID && (beforeID == 0 || m.ID < beforeID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return limitTo(out, limit), nil
}

func (r *ChatRepository) IncrementUnread(_ context.Context, conversationID, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.unread[[2]uint{conversationID, userID}]++
	return nil
}

func (r *ChatRepository) ResetUnread(_ context.Context, conversationID, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.st.unread, [2]uint{conversationID, userID})
	return nil
}

func (r *ChatRepository) ListConversations(_ context.Context, userID uint) ([]chat.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Summary
	for _, c := range r.st.convs {
		if c.UserID == userID || c.OwnerID == userID {
			out = append(out, chat.Summary{
				Conversation: c,
				UnreadCount:  r.st.unread[[2]uint{c.ID, userID}],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return lastActivity(out[i]).After(lastActivity(out[j])) })
	return out, nil
}

func lastActivity(s chat.Summary) time.Time {
	if s.LastMessageAt != nil {
		return *s.LastMessageAt
	}
	return s.CreatedAt
}
