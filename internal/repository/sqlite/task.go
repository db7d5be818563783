package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/repository"
)

// TaskRepo implements repository.TaskRepository.
type TaskRepo struct {
	db *DB
}

var _ repository.TaskRepository = (*TaskRepo)(nil)

// NewTaskRepo creates a TaskRepo backed by db.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, language_id, english_text, description, category,
	difficulty, estimated_minutes, sequence_order, is_starter, ai_generated, created_at`

// Create inserts a single task, generating its ID and timestamp.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()
	task.CreatedAt = time.Now()

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.LanguageID, task.EnglishText, task.Description,
		string(task.Category), string(task.Difficulty), task.EstimatedMinutes,
		task.SequenceOrder, task.IsStarter, task.AIGenerated, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}
	return nil
}

// CreateBatch inserts tasks inside one transaction. Used for starter-
// sequence seeding: either the whole 20-item sequence lands or none of it
// does — a half-seeded language would strand users mid-sequence.
//
// Two requests can race to seed the same language. The unique index on
// (language_id, sequence_order) for starters makes the loser's insert fail;
// that surfaces as ErrConflict and the whole batch rolls back.
func (r *TaskRepo) CreateBatch(ctx context.Context, tasks []*model.Task) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning batch insert: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	now := time.Now()
	for _, task := range tasks {
		task.ID = xid.New().String()
		task.CreatedAt = now

		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (`+taskColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID, task.LanguageID, task.EnglishText, task.Description,
			string(task.Category), string(task.Difficulty), task.EstimatedMinutes,
			task.SequenceOrder, task.IsStarter, task.AIGenerated, task.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.AlreadyExists("starter sequence already seeded for this language")
			}
			return fmt.Errorf("sqlite: batch-inserting task %q: %w", task.EnglishText, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing batch insert: %w", err)
	}
	return nil
}

// GetByID retrieves a single task.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}
	return task, nil
}

// CountByLanguage reports how many tasks exist for the language.
func (r *TaskRepo) CountByLanguage(ctx context.Context, languageID string) (int, error) {
	var count int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE language_id = ?`, languageID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting tasks for language %s: %w", languageID, err)
	}
	return count, nil
}

// StarterTasks returns the starter sequence ordered by sequence number.
func (r *TaskRepo) StarterTasks(ctx context.Context, languageID string) ([]model.Task, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE language_id = ? AND is_starter = 1
		 ORDER BY sequence_order ASC`, languageID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing starter tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// FirstIncompleteStarter returns the lowest-sequence starter task the user
// has not recorded yet, or nil when every starter has at least one
// recording by this user.
//
// NOT EXISTS beats a LEFT JOIN here: we want "no recording by THIS user",
// and the correlated subquery says exactly that.
func (r *TaskRepo) FirstIncompleteStarter(ctx context.Context, languageID, userID string) (*model.Task, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t
		 WHERE t.language_id = ? AND t.is_starter = 1
		   AND NOT EXISTS (
		     SELECT 1 FROM recordings rec
		     WHERE rec.task_id = t.id AND rec.user_id = ?
		   )
		 ORDER BY t.sequence_order ASC
		 LIMIT 1`, languageID, userID)

	task, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // all starters complete
		}
		return nil, fmt.Errorf("sqlite: finding incomplete starter: %w", err)
	}
	return task, nil
}

// RecentTexts returns the English texts of the language's most recent
// tasks, newest first — the avoid-list fed to the content generator.
func (r *TaskRepo) RecentTexts(ctx context.Context, languageID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT english_text FROM tasks
		 WHERE language_id = ?
		 ORDER BY created_at DESC, sequence_order DESC
		 LIMIT ?`, languageID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent task texts: %w", err)
	}
	defer rows.Close()

	texts := make([]string, 0, limit)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task text: %w", err)
		}
		texts = append(texts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating task texts: %w", err)
	}
	return texts, nil
}

// ListByLanguage returns the language's tasks, newest first.
func (r *TaskRepo) ListByLanguage(ctx context.Context, languageID string, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE language_id = ?
		 ORDER BY created_at DESC, sequence_order DESC
		 LIMIT ?`, languageID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// scanTask reads one task row through any Scan-shaped function, so it
// works for both *sql.Row and *sql.Rows.
func scanTask(scan func(...any) error) (*model.Task, error) {
	var t model.Task
	var category, difficulty string
	err := scan(
		&t.ID, &t.LanguageID, &t.EnglishText, &t.Description,
		&category, &difficulty, &t.EstimatedMinutes,
		&t.SequenceOrder, &t.IsStarter, &t.AIGenerated, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category = model.Category(category)
	t.Difficulty = model.Difficulty(difficulty)
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}
	return tasks, nil
}
