package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/progression"
	"github.com/amara/mothertongue/internal/repository"
	"github.com/amara/mothertongue/internal/taskgen"
)

// recentTextWindow is how many prior task texts feed the duplicate check.
const recentTextWindow = 200

// LockedDetail is the rejection payload when the user has not recorded
// enough times yet in the current cycle.
type LockedDetail struct {
	RecordingsNeeded int `json:"recordingsNeeded"`
}

// StarterPendingDetail is the rejection payload when starter tasks remain:
// it carries the next one to complete, lowest sequence first.
type StarterPendingDetail struct {
	StarterTask *model.Task `json:"starterTask"`
}

// TaskService owns the task-generation flow: the unlock policy, the
// generation pipeline, and the progress reset that re-locks the cycle.
type TaskService struct {
	tasks    repository.TaskRepository
	langs    repository.LanguageRepository
	progress repository.ProgressRepository
	pipeline *taskgen.Pipeline
	logger   *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(
	tasks repository.TaskRepository,
	langs repository.LanguageRepository,
	progress repository.ProgressRepository,
	pipeline *taskgen.Pipeline,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		langs:    langs,
		progress: progress,
		pipeline: pipeline,
		logger:   logger,
	}
}

// GenerateNext runs the whole "give me my next task" flow for a user and
// language:
//
//  1. A language with no tasks at all gets its 20-task starter sequence
//     seeded, and the user receives starter #1 unconditionally.
//  2. While the user has incomplete starter tasks, generation is refused
//     and the lowest-sequence incomplete one is returned in the rejection
//     detail. Force does not bypass this — the starter sequence is the
//     on-ramp everyone walks.
//  3. Past the starters, generation is gated on the recording counter:
//     fewer than the threshold without force is refused with how many
//     recordings remain; force (the "record again" flow) bypasses it.
//  4. When generation proceeds, the pipeline drafts a task (AI first,
//     templates on any failure), the task is persisted once, and the
//     user's counter resets to zero — re-locking the cycle.
//
// Two requests racing while unlocked may both succeed; each resets
// progress independently. Wasteful but harmless, so it is not serialized.
func (s *TaskService) GenerateNext(ctx context.Context, userID, languageID string, force bool) (*model.Task, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	lang, err := s.langs.GetByID(ctx, languageID)
	if err != nil {
		return nil, fmt.Errorf("service/task: fetching language %s: %w", languageID, err)
	}

	count, err := s.tasks.CountByLanguage(ctx, lang.ID)
	if err != nil {
		return nil, fmt.Errorf("service/task: counting tasks for %s: %w", lang.ID, err)
	}
	if count == 0 {
		return s.seedStarters(ctx, userID, lang)
	}

	starter, err := s.tasks.FirstIncompleteStarter(ctx, lang.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("service/task: checking starter progress: %w", err)
	}

	recorded, err := s.recordingsThisCycle(ctx, userID, lang.ID)
	if err != nil {
		return nil, err
	}

	state := progression.Evaluate(starter != nil, recorded)
	decision := progression.CanGenerate(state, recorded, force)
	if !decision.Allowed {
		if state == progression.NeedsStarter {
			return nil, apperror.Locked(
				fmt.Sprintf("complete starter task %d first", starter.SequenceOrder),
				StarterPendingDetail{StarterTask: starter},
			)
		}
		return nil, apperror.Locked(
			fmt.Sprintf("record %d more before generating a new task", decision.RecordingsNeeded),
			LockedDetail{RecordingsNeeded: decision.RecordingsNeeded},
		)
	}

	used, err := s.tasks.RecentTexts(ctx, lang.ID, recentTextWindow)
	if err != nil {
		return nil, fmt.Errorf("service/task: loading recent texts: %w", err)
	}

	// The pipeline never fails: AI output that errors, duplicates, or
	// reads unnaturally is replaced by a template draft.
	draft := s.pipeline.Generate(ctx, taskgen.Request{
		LanguageName: lang.Name,
		UsedTexts:    used,
	})

	task := draftToTask(draft, lang.ID)
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("service/task: persisting generated task: %w", err)
	}

	// Re-lock the cycle. The task is already committed at this point; a
	// failed reset would let the user generate again early, which is the
	// benign direction to fail in, but we still surface it.
	if err := s.progress.Reset(ctx, userID, lang.ID); err != nil {
		return nil, fmt.Errorf("service/task: resetting progress: %w", err)
	}

	s.logger.Info("task generated",
		slog.String("taskID", task.ID),
		slog.String("languageID", lang.ID),
		slog.String("userID", userID),
		slog.String("category", string(task.Category)),
		slog.Bool("aiGenerated", task.AIGenerated),
		slog.Bool("forced", force),
	)
	return task, nil
}

// seedStarters handles the first-ever generation request for a language:
// persist the full starter sequence in one transaction and hand the user
// starter #1. Losing the seed race to a concurrent request is fine — the
// unique starter index rejects the duplicate batch and the winner's rows
// are served.
func (s *TaskService) seedStarters(ctx context.Context, userID string, lang *model.Language) (*model.Task, error) {
	seq := taskgen.StarterSequence()
	batch := make([]*model.Task, 0, len(seq))
	for _, st := range seq {
		task := draftToTask(&st.Draft, lang.ID)
		task.SequenceOrder = st.SequenceOrder
		task.IsStarter = true
		batch = append(batch, task)
	}
	first := batch[0]
	if err := s.tasks.CreateBatch(ctx, batch); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/task: seeding starters for %s: %w", lang.ID, err)
		}
		// A concurrent request seeded between our count check and the
		// insert; our batch rolled back, so its IDs don't exist. Serve
		// the persisted sequence instead.
		first, err = s.tasks.FirstIncompleteStarter(ctx, lang.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("service/task: looking up seeded starters for %s: %w", lang.ID, err)
		}
		if first == nil {
			starters, err := s.tasks.StarterTasks(ctx, lang.ID)
			if err != nil {
				return nil, fmt.Errorf("service/task: listing seeded starters for %s: %w", lang.ID, err)
			}
			if len(starters) == 0 {
				return nil, fmt.Errorf("service/task: starter seed conflict for %s but no starters found", lang.ID)
			}
			first = &starters[0]
		}
	} else {
		s.logger.Info("starter sequence seeded",
			slog.String("languageID", lang.ID),
			slog.Int("tasks", len(batch)),
		)
	}

	if err := s.progress.Reset(ctx, userID, lang.ID); err != nil {
		return nil, fmt.Errorf("service/task: initializing progress: %w", err)
	}
	return first, nil
}

// Progress reports the user's progress row plus the named policy state —
// what the progress endpoint serves.
func (s *TaskService) Progress(ctx context.Context, userID, languageID string) (*model.TaskProgress, progression.State, error) {
	if _, err := s.langs.GetByID(ctx, languageID); err != nil {
		return nil, 0, fmt.Errorf("service/task: fetching language %s: %w", languageID, err)
	}

	starter, err := s.tasks.FirstIncompleteStarter(ctx, languageID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("service/task: checking starter progress: %w", err)
	}

	progress, err := s.progress.Get(ctx, userID, languageID)
	if errors.Is(err, apperror.ErrNotFound) {
		progress = &model.TaskProgress{UserID: userID, LanguageID: languageID}
	} else if err != nil {
		return nil, 0, fmt.Errorf("service/task: fetching progress: %w", err)
	}

	return progress, progression.Evaluate(starter != nil, progress.RecordingsCount), nil
}

// GetByID returns a single task.
func (s *TaskService) GetByID(ctx context.Context, id string) (*model.Task, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task id is required")
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/task: fetching task %s: %w", id, err)
	}
	return task, nil
}

// ListForLanguage returns the starter sequence plus the most recent tasks
// for a language.
func (s *TaskService) ListForLanguage(ctx context.Context, languageID string, limit int) (starters, recent []model.Task, err error) {
	if _, err := s.langs.GetByID(ctx, languageID); err != nil {
		return nil, nil, fmt.Errorf("service/task: fetching language %s: %w", languageID, err)
	}
	starters, err = s.tasks.StarterTasks(ctx, languageID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/task: listing starters: %w", err)
	}
	recent, err = s.tasks.ListByLanguage(ctx, languageID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("service/task: listing tasks: %w", err)
	}
	return starters, recent, nil
}

// recordingsThisCycle reads the counter, treating a missing row as zero.
func (s *TaskService) recordingsThisCycle(ctx context.Context, userID, languageID string) (int, error) {
	progress, err := s.progress.Get(ctx, userID, languageID)
	if errors.Is(err, apperror.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("service/task: fetching progress: %w", err)
	}
	return progress.RecordingsCount, nil
}

func draftToTask(draft *taskgen.Draft, languageID string) *model.Task {
	return &model.Task{
		LanguageID:       languageID,
		EnglishText:      draft.EnglishText,
		Description:      draft.Description,
		Category:         draft.Category,
		Difficulty:       draft.Difficulty,
		EstimatedMinutes: draft.EstimatedMinutes,
		AIGenerated:      draft.AIGenerated,
	}
}
