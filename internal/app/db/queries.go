package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"playchat/internal/app/message"
	"playchat/internal/app/user"
)

// Queries implements the persistence operations consumed by the chat core and the
// session authenticator on top of a pgx connection pool.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries wraps an open pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// NormalizeID returns the canonical lowercase hyphenated form of a user id. Users are
// keyed by that form everywhere in memory, so every textual uuid variant maps to it.
func (q *Queries) NormalizeID(id string) (string, bool) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return uid.String(), true
}

const getUserByID = `
SELECT id::text, COALESCE(NULLIF(nickname, ''), username), COALESCE(avatar_url, '')
FROM users
WHERE id = $1`

// GetUserByID resolves a user profile. Unknown or malformed ids return user.ErrNotFound.
func (q *Queries) GetUserByID(ctx context.Context, id string) (user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err = q.pool.QueryRow(ctx, getUserByID, uid).Scan(&u.ID, &u.Nickname, &u.Avatar)
	if IsNoRows(err) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user %s: %w", id, err)
	}

	return u, nil
}

// A pair may be stored in either direction, or in both when each side sent a request.
const findRelationship = `
SELECT COUNT(*),
       COALESCE(bool_or(status = 'accepted'), FALSE),
       COALESCE(bool_or(is_blocked), FALSE)
FROM friendships
WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`

// FindRelationship returns the relationship between a and b, or nil when none exists.
func (q *Queries) FindRelationship(ctx context.Context, a, b string) (*user.Relationship, error) {
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA != nil || errB != nil || ua == ub {
		return nil, nil
	}

	var (
		count     int64
		confirmed bool
		blocked   bool
	)
	if err := q.pool.QueryRow(ctx, findRelationship, ua, ub).Scan(&count, &confirmed, &blocked); err != nil {
		return nil, fmt.Errorf("find relationship %s/%s: %w", a, b, err)
	}

	if count == 0 {
		return nil, nil
	}

	return &user.Relationship{
		UserID:    a,
		FriendID:  b,
		Confirmed: confirmed,
		Blocked:   blocked,
	}, nil
}

const listConfirmedRelations = `
SELECT (CASE WHEN user_id = $1 THEN friend_id ELSE user_id END)::text AS other_id
FROM friendships
WHERE (user_id = $1 OR friend_id = $1)
GROUP BY other_id
HAVING bool_or(status = 'accepted') AND NOT bool_or(is_blocked)`

// ListConfirmedRelations returns the ids of every confirmed, unblocked friend of id.
func (q *Queries) ListConfirmedRelations(ctx context.Context, id string) ([]string, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	rows, err := q.pool.Query(ctx, listConfirmedRelations, uid)
	if err != nil {
		return nil, fmt.Errorf("list relations of %s: %w", id, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect relations of %s: %w", id, err)
	}

	return ids, nil
}

const messageColumns = `id::text, sender_id::text, receiver_id::text, content, type, sent_at, is_read, read_at`

const createMessage = `
INSERT INTO messages (id, sender_id, receiver_id, content, type)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + messageColumns

// CreateMessage persists a new unread message and returns the stored record.
func (q *Queries) CreateMessage(ctx context.Context, m message.NewMessage) (message.Message, error) {
	sender, err := uuid.Parse(m.SenderID)
	if err != nil {
		return message.Message{}, fmt.Errorf("create message: invalid sender id %q", m.SenderID)
	}
	receiver, err := uuid.Parse(m.ReceiverID)
	if err != nil {
		return message.Message{}, fmt.Errorf("create message: invalid receiver id %q", m.ReceiverID)
	}

	row := q.pool.QueryRow(ctx, createMessage, uuid.New(), sender, receiver, m.Content, string(m.Type))

	msg, err := scanMessage(row)
	if IsForeignKeyViolation(err) {
		return message.Message{}, fmt.Errorf("create message: unknown participant: %w", err)
	}
	if err != nil {
		return message.Message{}, fmt.Errorf("create message: %w", err)
	}

	return msg, nil
}

const getMessage = `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

// GetMessage loads a message by id. Unknown or malformed ids return message.ErrNotFound.
func (q *Queries) GetMessage(ctx context.Context, id string) (message.Message, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return message.Message{}, message.ErrNotFound
	}

	msg, err := scanMessage(q.pool.QueryRow(ctx, getMessage, mid))
	if IsNoRows(err) {
		return message.Message{}, message.ErrNotFound
	}
	if err != nil {
		return message.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}

	return msg, nil
}

// read_at keeps its first value so repeated receipts never move it.
const markMessageRead = `
UPDATE messages
SET is_read = TRUE, read_at = COALESCE(read_at, now())
WHERE id = $1
RETURNING ` + messageColumns

// MarkMessageRead flags a message as read. It is idempotent.
func (q *Queries) MarkMessageRead(ctx context.Context, id string) (message.Message, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return message.Message{}, message.ErrNotFound
	}

	msg, err := scanMessage(q.pool.QueryRow(ctx, markMessageRead, mid))
	if IsNoRows(err) {
		return message.Message{}, message.ErrNotFound
	}
	if err != nil {
		return message.Message{}, fmt.Errorf("mark message %s read: %w", id, err)
	}

	return msg, nil
}

func scanMessage(row pgx.Row) (message.Message, error) {
	var (
		msg     message.Message
		msgType string
	)

	err := row.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msgType,
		&msg.SentAt,
		&msg.IsRead,
		&msg.ReadAt,
	)
	if err != nil {
		return message.Message{}, err
	}

	msg.Type = message.Type(msgType)
	return msg, nil
}
