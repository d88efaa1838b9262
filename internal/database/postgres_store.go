package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/birbparty/birb-academy/sdk"
)

const uniqueViolation = "23505"

const (
	userColumns         = `id, username, email, first_name, last_name, role, avatar, bio, password_hash, created_at`
	enrollmentColumns   = `id, user_id, course_id, progress, current_module_id, current_lesson_id, completed_lessons, enrolled_at, last_accessed_at`
	conversationColumns = `id, user_id, instructor_id, instructor_name, course_id, subject, status, created_at, updated_at`
	messageColumns      = `id, conversation_id, sender_id, sender_type, content, created_at`
	subscriptionColumns = `id, user_id, course_id, plan_type, status, customer_id, current_period_end, created_at`
)

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *DB
}

// NewPostgresStore wraps a connection pool.
func NewPostgresStore(db *DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Seed inserts the seed records, keeping any row that already exists, and
// moves every id sequence past the seeded ids.
func (s *PostgresStore) Seed(ctx context.Context, seed *Seed, passwordHash string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range seed.Users {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, email, first_name, last_name, role, avatar, bio, password_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT DO NOTHING`,
			u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Role, u.Avatar, u.Bio, passwordHash,
		); err != nil {
			return fmt.Errorf("failed to seed user %d: %w", u.ID, err)
		}
	}

	for _, e := range seed.Enrollments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO enrollments (`+enrollmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT DO NOTHING`,
			e.ID, e.UserID, e.CourseID, e.Progress, e.CurrentModuleID, e.CurrentLessonID,
			e.CompletedLessons, e.EnrolledAt, e.LastAccessedAt,
		); err != nil {
			return fmt.Errorf("failed to seed enrollment %d: %w", e.ID, err)
		}
	}

	for _, c := range seed.Conversations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversations (`+conversationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT DO NOTHING`,
			c.ID, c.UserID, c.InstructorID, c.InstructorName, c.CourseID, c.Subject, c.Status, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to seed conversation %d: %w", c.ID, err)
		}
		for _, m := range c.Messages {
			if _, err := tx.Exec(ctx, `
				INSERT INTO messages (`+messageColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT DO NOTHING`,
				m.ID, c.ID, m.SenderID, m.SenderType, m.Content, m.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to seed message %d: %w", m.ID, err)
			}
		}
	}

	for _, sub := range seed.Subscriptions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO subscriptions (`+subscriptionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT DO NOTHING`,
			sub.ID, sub.UserID, sub.CourseID, sub.PlanType, sub.Status, sub.CustomerID, sub.CurrentPeriodEnd, sub.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to seed subscription %d: %w", sub.ID, err)
		}
	}

	for _, table := range seededTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table,
		)); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *PostgresStore) UserByID(ctx context.Context, id int64) (*sdk.User, error) {
	rec, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &rec.User, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, rec *UserRecord) (*sdk.User, error) {
	created, err := scanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, role, avatar, bio, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		rec.Username, rec.Email, rec.FirstName, rec.LastName, rec.Role, rec.Avatar, rec.Bio, rec.PasswordHash,
	))
	if err != nil {
		return nil, err
	}
	return &created.User, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id int64, upd sdk.ProfileUpdate) (*sdk.User, error) {
	updated, err := scanUser(s.db.QueryRow(ctx, `
		UPDATE users SET
			email      = COALESCE($2, email),
			first_name = COALESCE($3, first_name),
			last_name  = COALESCE($4, last_name),
			avatar     = COALESCE($5, avatar),
			bio        = COALESCE($6, bio)
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.Email, upd.FirstName, upd.LastName, upd.Avatar, upd.Bio,
	))
	if err != nil {
		return nil, err
	}
	return &updated.User, nil
}

func (s *PostgresStore) ListEnrollments(ctx context.Context, userID int64) ([]sdk.Enrollment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	out := []sdk.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetEnrollment(ctx context.Context, id int64) (*sdk.Enrollment, error) {
	return scanEnrollment(s.db.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
}

func (s *PostgresStore) CreateEnrollment(ctx context.Context, userID, courseID int64) (*sdk.Enrollment, error) {
	return scanEnrollment(s.db.QueryRow(ctx, `
		INSERT INTO enrollments (user_id, course_id)
		VALUES ($1, $2)
		RETURNING `+enrollmentColumns,
		userID, courseID,
	))
}

func (s *PostgresStore) UpdateProgress(ctx context.Context, id int64, upd sdk.ProgressUpdate) (*sdk.Enrollment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := scanEnrollment(tx.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	applyProgress(e, upd, time.Now().UTC())
	if _, err := tx.Exec(ctx, `
		UPDATE enrollments SET
			progress = $2, current_module_id = $3, current_lesson_id = $4,
			completed_lessons = $5, last_accessed_at = $6
		WHERE id = $1`,
		e.ID, e.Progress, e.CurrentModuleID, e.CurrentLessonID, e.CompletedLessons, e.LastAccessedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit progress: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, userID int64) ([]sdk.Conversation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	out := []sdk.Conversation{}
	ids := []int64{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	messages, err := s.messagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Messages = messages[out[i].ID]
	}
	return out, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id int64) (*sdk.Conversation, error) {
	c, err := scanConversation(s.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	messages, err := s.messagesFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	c.Messages = messages[id]
	return c, nil
}

func (s *PostgresStore) messagesFor(ctx context.Context, ids []int64) (map[int64][]sdk.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]sdk.Message, len(ids))
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out[m.ConversationID] = append(out[m.ConversationID], *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *sdk.Conversation, first string) (*sdk.Conversation, error) {
	status := conv.Status
	if status == "" {
		status = ConversationOpen
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := scanConversation(tx.QueryRow(ctx, `
		INSERT INTO conversations (user_id, instructor_id, instructor_name, course_id, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+conversationColumns,
		conv.UserID, conv.InstructorID, conv.InstructorName, conv.CourseID, conv.Subject, status,
	))
	if err != nil {
		return nil, err
	}

	m, err := scanMessage(tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, sender_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns,
		c.ID, c.UserID, SenderStudent, first, c.CreatedAt,
	))
	if err != nil {
		return nil, err
	}
	c.Messages = []sdk.Message{*m}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit conversation: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, msg *sdk.Message) (*sdk.Message, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, msg.ConversationID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	m, err := scanMessage(tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, sender_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns,
		msg.ConversationID, msg.SenderID, msg.SenderType, msg.Content, now,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) SubscriptionForUser(ctx context.Context, userID int64) (*sdk.Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, userID))
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id int64) (*sdk.Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
}

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *sdk.Subscription) (*sdk.Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, course_id, plan_type, status, customer_id, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.CourseID, sub.PlanType, sub.Status, sub.CustomerID, sub.CurrentPeriodEnd,
	))
}

func (s *PostgresStore) SetSubscriptionStatus(ctx context.Context, id int64, status string) (*sdk.Subscription, error) {
	return scanSubscription(s.db.QueryRow(ctx,
		`UPDATE subscriptions SET status = $2 WHERE id = $1 RETURNING `+subscriptionColumns, id, status))
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// mapError turns driver errors into the store's sentinels.
func mapError(err error, what string) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return ErrConflict
	default:
		return fmt.Errorf("failed to %s: %w", what, err)
	}
}

func scanUser(row pgx.Row) (*UserRecord, error) {
	var u UserRecord
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.Role, &u.Avatar, &u.Bio, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "scan user")
	}
	return &u, nil
}

func scanEnrollment(row pgx.Row) (*sdk.Enrollment, error) {
	var e sdk.Enrollment
	err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.CurrentModuleID,
		&e.CurrentLessonID, &e.CompletedLessons, &e.EnrolledAt, &e.LastAccessedAt)
	if err != nil {
		return nil, mapError(err, "scan enrollment")
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}
	return &e, nil
}

func scanConversation(row pgx.Row) (*sdk.Conversation, error) {
	var c sdk.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.InstructorID, &c.InstructorName, &c.CourseID,
		&c.Subject, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "scan conversation")
	}
	return &c, nil
}

func scanMessage(row pgx.Row) (*sdk.Message, error) {
	var m sdk.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderType, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, mapError(err, "scan message")
	}
	return &m, nil
}

func scanSubscription(row pgx.Row) (*sdk.Subscription, error) {
	var sub sdk.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.CourseID, &sub.PlanType, &sub.Status,
		&sub.CustomerID, &sub.CurrentPeriodEnd, &sub.CreatedAt)
	if err != nil {
		return nil, mapError(err, "scan subscription")
	}
	return &sub, nil
}
