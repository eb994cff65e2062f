package store

import (
	"context"
	"database/sql"
	"errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS colleges (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS admins (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL,
	college_id BIGINT NOT NULL REFERENCES colleges(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS students (
	id BIGSERIAL PRIMARY KEY,
	student_id TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL,
	phone TEXT,
	college_id BIGINT NOT NULL REFERENCES colleges(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	end_date TIMESTAMPTZ NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	max_participants INT NOT NULL CHECK (max_participants > 0),
	registration_deadline TIMESTAMPTZ,
	college_id BIGINT NOT NULL REFERENCES colleges(id),
	created_by BIGINT NOT NULL REFERENCES admins(id),
	checkin_token TEXT NOT NULL UNIQUE,
	qr_code TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (start_date <= end_date)
);

CREATE TABLE IF NOT EXISTS registrations (
	id BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	event_id BIGINT NOT NULL REFERENCES events(id),
	status TEXT NOT NULL DEFAULT 'registered' CHECK (status IN ('registered', 'waitlisted', 'cancelled')),
	registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, event_id)
);

CREATE TABLE IF NOT EXISTS attendance (
	id BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	event_id BIGINT NOT NULL REFERENCES events(id),
	checked_in_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, event_id)
);

CREATE TABLE IF NOT EXISTS feedback (
	id BIGSERIAL PRIMARY KEY,
	student_id BIGINT NOT NULL REFERENCES students(id),
	event_id BIGINT NOT NULL REFERENCES events(id),
	rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (student_id, event_id)
);
`

// InitSchema creates the tables if they do not exist. The unique constraints on
// (student_id, event_id) are what the ledger relies on; they are not advisory.
func (d *DB) InitSchema(ctx context.Context) error {
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}

// SeedDefaults ensures the default college and one admin account exist so a
// fresh install is usable. adminPassHash must already be a bcrypt hash.
func (d *DB) SeedDefaults(ctx context.Context, adminUser, adminEmail, adminPassHash string) error {
	var collegeID int64
	err := d.Client.QueryRowContext(ctx, `SELECT id FROM colleges WHERE code = 'DEFAULT'`).Scan(&collegeID)
	if errors.Is(err, sql.ErrNoRows) {
		err = d.Client.QueryRowContext(ctx, `
			INSERT INTO colleges (name, code) VALUES ('Default College', 'DEFAULT')
			RETURNING id
		`).Scan(&collegeID)
	}
	if err != nil {
		return err
	}

	_, err = d.Client.ExecContext(ctx, `
		INSERT INTO admins (username, email, password_hash, name, college_id)
		VALUES ($1, $2, $3, 'System Administrator', $4)
		ON CONFLICT (username) DO NOTHING
	`, adminUser, adminEmail, adminPassHash, collegeID)
	return err
}
