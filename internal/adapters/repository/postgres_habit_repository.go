package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"habitflow/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	query := `
        INSERT INTO habits (id, user_id, name, description, frequency, created_at, updated_at, archived_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Name, h.Description, h.Frequency,
		h.CreatedAt, h.UpdatedAt, h.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}
	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	query := `SELECT * FROM habits WHERE id = $1`

	var h domain.Habit
	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	query := `
        SELECT * FROM habits
        WHERE user_id = $1 AND archived_at IS NULL
        ORDER BY created_at ASC`

	var habits []*domain.Habit
	if err := r.db.SelectContext(ctx, &habits, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) ListAtRisk(ctx context.Context, userID string, threshold time.Duration) ([]*domain.Habit, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	query := `
        SELECT h.* FROM habits h
        LEFT JOIN LATERAL (
            SELECT MAX(completed_at) AS last_completed
            FROM completions c WHERE c.habit_id = h.id
        ) lc ON true
        WHERE h.user_id = $1 AND h.archived_at IS NULL
          AND COALESCE(lc.last_completed, h.created_at) < $2
        ORDER BY h.created_at ASC`

	var habits []*domain.Habit
	if err := r.db.SelectContext(ctx, &habits, query, userID, cutoff); err != nil {
		return nil, fmt.Errorf("at-risk query error: %w", err)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) AddCompletion(ctx context.Context, c *domain.Completion) error {
	query := `
        INSERT INTO completions (id, habit_id, completed_at)
        VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.HabitID, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}
	return nil
}

func (r *PostgresHabitRepository) ListCompletionsByHabit(ctx context.Context, habitID string) ([]domain.Completion, error) {
	query := `
        SELECT id, habit_id, completed_at FROM completions
        WHERE habit_id = $1
        ORDER BY completed_at DESC
        LIMIT 90`

	var completions []domain.Completion
	if err := r.db.SelectContext(ctx, &completions, query, habitID); err != nil {
		return nil, fmt.Errorf("completions query error: %w", err)
	}
	return completions, nil
}

func (r *PostgresHabitRepository) ListCompletionsForPeriod(ctx context.Context, userID string, start, end time.Time) ([]domain.CompletionRow, error) {
	query := `
        SELECT c.habit_id, h.name, c.completed_at
        FROM completions c
        JOIN habits h ON h.id = c.habit_id
        WHERE h.user_id = $1 AND c.completed_at >= $2 AND c.completed_at <= $3
        ORDER BY c.completed_at ASC`

	var rows []domain.CompletionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("period query error: %w", err)
	}
	return rows, nil
}
