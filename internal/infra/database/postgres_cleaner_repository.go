package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"cleaner_reminder_service/internal/domain/cleaner"
)

type PostgresCleanerRepository struct {
	db *sql.DB
}

func NewPostgresCleanerRepository(db *sql.DB) *PostgresCleanerRepository {
	return &PostgresCleanerRepository{db: db}
}

func (r *PostgresCleanerRepository) GetContactsByIDs(ctx context.Context, ids []string) (map[string]cleaner.Contact, error) {
	contacts := make(map[string]cleaner.Contact, len(ids))
	if len(ids) == 0 {
		return contacts, nil
	}

	query := `SELECT id, full_name, email
               FROM users
               WHERE id = ANY($1) AND role = 'cleaner' AND is_deleted = FALSE`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error getting cleaner contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c               cleaner.Contact
			fullName, email sql.NullString
		)
		if err := rows.Scan(&c.ID, &fullName, &email); err != nil {
			return nil, fmt.Errorf("error scanning cleaner contact: %w", err)
		}
		c.FullName = fullName.String
		c.Email = email.String
		contacts[c.ID] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cleaner contacts: %w", err)
	}
	return contacts, nil
}
