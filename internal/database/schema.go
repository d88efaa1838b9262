package database

// schema is applied by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'student',
		avatar        TEXT NOT NULL DEFAULT '',
		bio           TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL,
		course_id         BIGINT NOT NULL,
		progress          INTEGER NOT NULL DEFAULT 0,
		current_module_id TEXT NOT NULL DEFAULT '',
		current_lesson_id TEXT NOT NULL DEFAULT '',
		completed_lessons TEXT[] NOT NULL DEFAULT '{}',
		enrolled_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_accessed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, course_id)
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL,
		instructor_id   BIGINT NOT NULL,
		instructor_name TEXT NOT NULL DEFAULT '',
		course_id       BIGINT NOT NULL DEFAULT 0,
		subject         TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'open',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              BIGSERIAL PRIMARY KEY,
		conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id       BIGINT NOT NULL,
		sender_type     TEXT NOT NULL,
		content         TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                 BIGSERIAL PRIMARY KEY,
		user_id            BIGINT NOT NULL,
		course_id          BIGINT NOT NULL DEFAULT 0,
		plan_type          TEXT NOT NULL,
		status             TEXT NOT NULL,
		customer_id        TEXT NOT NULL DEFAULT '',
		current_period_end TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS activity (
		event_id    TEXT PRIMARY KEY,
		type        TEXT NOT NULL,
		subject     TEXT NOT NULL,
		user_id     BIGINT NOT NULL,
		payload     JSONB NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_user ON enrollments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_user ON activity(user_id, occurred_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_occurred ON activity(occurred_at)`,
}

var seededTables = []string{"users", "enrollments", "conversations", "messages", "subscriptions"}
