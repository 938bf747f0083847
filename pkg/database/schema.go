package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is portable between SQLite and PostgreSQL. Loans are history: they
// restrict computer deletion and only lose their borrower reference when a
// student or teacher is removed.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teachers (
        id TEXT PRIMARY KEY,
        dni TEXT NOT NULL UNIQUE,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL,
        phone TEXT,
        email TEXT,
        department TEXT,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS students (
        id TEXT PRIMARY KEY,
        dni TEXT NOT NULL UNIQUE,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL,
        phone TEXT,
        email TEXT,
        career TEXT,
        teacher_id TEXT REFERENCES teachers(id) ON DELETE SET NULL,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS carts (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        location TEXT,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS computers (
        id TEXT PRIMARY KEY,
        inventory_code TEXT NOT NULL UNIQUE,
        cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE RESTRICT,
        status TEXT NOT NULL DEFAULT 'disponible' CHECK (status IN ('disponible', 'prestada', 'en reparación')),
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS loans (
        id TEXT PRIMARY KEY,
        borrower_kind TEXT NOT NULL CHECK (borrower_kind IN ('alumno', 'docente')),
        student_id TEXT REFERENCES students(id) ON DELETE SET NULL,
        teacher_id TEXT REFERENCES teachers(id) ON DELETE SET NULL,
        computer_id TEXT NOT NULL REFERENCES computers(id) ON DELETE RESTRICT,
        started_at TIMESTAMP NOT NULL,
        ended_at TIMESTAMP,
        status TEXT NOT NULL DEFAULT 'activo' CHECK (status IN ('activo', 'devuelto')),
        notes TEXT,
        CONSTRAINT loans_active_borrower_check CHECK (
            status <> 'activo'
            OR (borrower_kind = 'alumno' AND student_id IS NOT NULL)
            OR (borrower_kind = 'docente' AND teacher_id IS NOT NULL)
        )
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_active_computer_idx ON loans (computer_id) WHERE status = 'activo'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_active_student_idx ON loans (student_id) WHERE status = 'activo' AND borrower_kind = 'alumno'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_active_teacher_idx ON loans (teacher_id) WHERE status = 'activo' AND borrower_kind = 'docente'`,
	`CREATE INDEX IF NOT EXISTS loans_started_at_idx ON loans (started_at)`,
	`CREATE INDEX IF NOT EXISTS computers_cart_idx ON computers (cart_id)`,
	`CREATE TABLE IF NOT EXISTS administrators (
        id TEXT PRIMARY KEY,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        first_name TEXT NOT NULL,
        last_name TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT 'admin' CHECK (role IN ('admin', 'superadmin')),
        active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
}

// Migrate creates missing tables and indexes. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
