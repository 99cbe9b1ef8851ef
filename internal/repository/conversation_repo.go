package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/connecta/internal/db"
	svcErr "github.com/oggyb/connecta/internal/errors"
	"github.com/oggyb/connecta/internal/utils/pagination"
)

// Snapshot is the display data copied onto a conversation participant at
// write time. It is not live-joined on read.
type Snapshot struct {
	UserID string
	Name   string
	Photo  string
}

// ConversationRepository owns messages and their derived conversation summary.
type ConversationRepository struct {
	base
}

// NewConversationRepository creates a new repository bound to the given DB connection.
func NewConversationRepository(database *gorm.DB, opts ...Option) *ConversationRepository {
	return &ConversationRepository{base: newBase(database, opts)}
}

// Append inserts msg and recomputes the conversation summary in one transaction.
//
// Behavior:
//   - First message → conversation + both participants are created,
//     created_at = last_message_time = msg.SentAt, unread {sender:0, receiver:1}.
//   - Later messages → last message fields overwritten, sender unread reset
//     to 0, receiver unread incremented in SQL, both snapshots refreshed.
//   - An existing conversation whose participants differ from
//     (sender, receiver) is rejected with ErrInvalidInput.
//
// Callers serialize Append per conversation; the SQL increment keeps the
// counter correct even if they do not.
func (r *ConversationRepository) Append(
	ctx context.Context,
	msg *db.Message,
	lastMessage string,
	sender, receiver Snapshot,
) (*db.Conversation, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var out db.Conversation
	err := conn.Transaction(func(tx *gorm.DB) error {
		var conv db.Conversation
		err := tx.Preload("Participants").First(&conv, "id = ?", msg.ConversationID).Error
		exists := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
		} else if err != nil {
			return err
		}

		if exists && !hasParticipants(&conv, sender.UserID, receiver.UserID) {
			return svcErr.Invalid("sender and receiver do not match conversation " + conv.ID)
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		if !exists {
			conv = db.Conversation{
				ID:              msg.ConversationID,
				LastMessage:     lastMessage,
				LastMessageType: msg.Type,
				LastMessageTime: msg.SentAt,
				CreatedAt:       msg.SentAt,
			}
			if err := tx.Omit(clause.Associations).Create(&conv).Error; err != nil {
				return err
			}
			parts := []db.Participant{
				{ConversationID: conv.ID, UserID: sender.UserID, UserName: sender.Name, UserPhoto: sender.Photo, UnreadCount: 0},
				{ConversationID: conv.ID, UserID: receiver.UserID, UserName: receiver.Name, UserPhoto: receiver.Photo, UnreadCount: 1},
			}
			if err := tx.Create(&parts).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&db.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]any{
				"last_message":      lastMessage,
				"last_message_type": msg.Type,
				"last_message_time": msg.SentAt,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&db.Participant{}).
				Where("conversation_id = ? AND user_id = ?", conv.ID, sender.UserID).
				Updates(map[string]any{
					"user_name":    sender.Name,
					"user_photo":   sender.Photo,
					"unread_count": 0,
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&db.Participant{}).
				Where("conversation_id = ? AND user_id = ?", conv.ID, receiver.UserID).
				Updates(map[string]any{
					"user_name":    receiver.Name,
					"user_photo":   receiver.Photo,
					"unread_count": gorm.Expr("unread_count + ?", 1),
				}).Error; err != nil {
				return err
			}
		}

		return tx.Preload("Participants", orderParticipants).First(&out, "id = ?", conv.ID).Error
	})
	if err != nil {
		return nil, wrap("append message", err)
	}
	return &out, nil
}

// Get loads a conversation with its participants. Absent → ErrNotFound.
func (r *ConversationRepository) Get(ctx context.Context, conversationID string) (*db.Conversation, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var conv db.Conversation
	if err := conn.Preload("Participants", orderParticipants).First(&conv, "id = ?", conversationID).Error; err != nil {
		return nil, svcErr.Storage("load conversation "+conversationID, err)
	}
	return &conv, nil
}

// Messages returns the conversation's messages ascending by (sent_at, seq).
//
// Behavior:
//   - limit <= 0 → the full history, next token always nil.
//   - limit > 0 → at most limit messages strictly after cursor, plus a next
//     token when more remain.
func (r *ConversationRepository) Messages(
	ctx context.Context,
	conversationID string,
	cursor pagination.Cursor,
	limit int,
) ([]db.Message, *string, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	query := conn.
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, seq ASC")

	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.SentUnix).UTC()
		query = query.Where("(sent_at > ? OR (sent_at = ? AND seq > ?))", ts, ts, cursor.Seq)
	}
	if limit > 0 {
		query = query.Limit(limit + 1)
	}

	var msgs []db.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, nil, wrap("list messages", err)
	}

	var nextToken *string
	if limit > 0 && len(msgs) > limit {
		last := msgs[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			SentUnix: last.SentAt.UnixMilli(),
			Seq:      last.Seq,
		})
		nextToken = &token
		msgs = msgs[:limit]
	}

	return msgs, nextToken, nil
}

// ResetUnread zeroes the user's counter and stamps last_read_at.
// Unknown conversations or non-participants are a silent no-op.
func (r *ConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string, at time.Time) error {
	conn, cancel := r.conn(ctx)
	defer cancel()

	err := conn.Model(&db.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]any{
			"unread_count": 0,
			"last_read_at": at,
		}).Error
	return wrap("reset unread", err)
}

// ForUser returns every conversation the user participates in, most recent first.
func (r *ConversationRepository) ForUser(ctx context.Context, userID string) ([]db.Conversation, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var convs []db.Conversation
	err := conn.
		Select("conversations.*").
		Joins("JOIN conversation_participants p ON p.conversation_id = conversations.id AND p.user_id = ?", userID).
		Preload("Participants", orderParticipants).
		Order("conversations.last_message_time DESC, conversations.id ASC").
		Find(&convs).Error
	return convs, wrap("list conversations", err)
}

// TotalUnread sums the user's unread counters across conversations.
func (r *ConversationRepository) TotalUnread(ctx context.Context, userID string) (int64, error) {
	conn, cancel := r.conn(ctx)
	defer cancel()

	var total int64
	err := conn.Model(&db.Participant{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, wrap("total unread", err)
}

func orderParticipants(tx *gorm.DB) *gorm.DB {
	return tx.Order("user_id ASC")
}

func hasParticipants(conv *db.Conversation, a, b string) bool {
	if len(conv.Participants) != 2 {
		return false
	}
	return conv.Participant(a) != nil && conv.Participant(b) != nil
}
