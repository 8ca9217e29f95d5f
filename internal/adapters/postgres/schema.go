package postgres

// schema is applied in order by Store.Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS restaurants (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS meal_plans (
		id                  TEXT PRIMARY KEY,
		restaurant_id       TEXT NOT NULL,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		tier                TEXT NOT NULL,
		duration            TEXT NOT NULL,
		price               NUMERIC(12,2) NOT NULL,
		weekly_menu         JSONB NOT NULL,
		max_subscribers     INTEGER,
		current_subscribers INTEGER NOT NULL DEFAULT 0 CHECK (current_subscribers >= 0),
		custom_for          TEXT,
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		is_custom           BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_plans_active ON meal_plans (restaurant_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		meal_plan_id          TEXT NOT NULL REFERENCES meal_plans(id),
		selected_diet_type    TEXT NOT NULL,
		selected_meal_times   TEXT[] NOT NULL,
		delivery_address      JSONB NOT NULL,
		delivery_instructions TEXT,
		payment_method        TEXT NOT NULL,
		payment_status        TEXT NOT NULL,
		status                TEXT NOT NULL,
		total_amount          NUMERIC(12,2) NOT NULL,
		start_date            TIMESTAMPTZ NOT NULL,
		end_date              TIMESTAMPTZ NOT NULL,
		renewal_date          TIMESTAMPTZ NOT NULL,
		last_reminder_for     TIMESTAMPTZ,
		last_reminded_at      TIMESTAMPTZ,
		cancelled_at          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_active_renewal ON subscriptions (renewal_date) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		restaurant_id         TEXT NOT NULL,
		subscription_id       TEXT REFERENCES subscriptions(id),
		items                 JSONB NOT NULL,
		total_amount          NUMERIC(12,2) NOT NULL,
		delivery_address      JSONB NOT NULL,
		delivery_instructions TEXT,
		payment_method        TEXT NOT NULL,
		status                TEXT NOT NULL,
		day_of_week           TEXT,
		meal_time             TEXT,
		diet_type             TEXT,
		scheduled_for         TIMESTAMPTZ NOT NULL,
		scheduled_day         DATE NOT NULL,
		cancellation_reason   TEXT,
		cancelled_at          TIMESTAMPTZ,
		delivered_at          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_subscription_slot
		ON orders (subscription_id, day_of_week, meal_time, scheduled_day)
		WHERE subscription_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id                      TEXT PRIMARY KEY,
		recipient_id            TEXT NOT NULL,
		type                    TEXT NOT NULL,
		title                   TEXT NOT NULL,
		message                 TEXT NOT NULL,
		related_order_id        TEXT,
		related_subscription_id TEXT,
		is_read                 BOOLEAN NOT NULL DEFAULT FALSE,
		deliver_after           TIMESTAMPTZ,
		created_at              TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC)`,
}
