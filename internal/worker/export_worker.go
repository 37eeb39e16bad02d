package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exporter renders the schedule artifact for one date.
type Exporter interface {
	ExportSchedule(ctx context.Context, date string) (string, error)
}

type exportTask struct {
	Date       string    `json:"date"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExportWorker regenerates schedule exports off the booking path. Tasks
// go through redis when it is configured, so they survive a restart;
// without redis an in-memory channel serves as the queue. Exports are
// idempotent per date, which is why a dropped task is tolerable: the
// next mutation of the same date enqueues it again.
type ExportWorker struct {
	exporter      Exporter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan exportTask
	redisQueueKey string
	deadLetterKey string
	logger        *zerolog.Logger
}

func NewExportWorker(exporter Exporter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		exporter:      exporter,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan exportTask, 128),
		redisQueueKey: "exports:queue",
		deadLetterKey: "exports:deadletter",
		logger:        logger,
	}
}

// EnqueueScheduleExport schedules a regeneration of the date's sheet.
func (w *ExportWorker) EnqueueScheduleExport(ctx context.Context, date string) error {
	task := exportTask{Date: date, CreatedAt: time.Now()}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Str("date", date).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		return nil
	default:
		return errors.New("export queue is full")
	}
}

// Start runs the consume loop until ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, t)
			continue
		}

		if w.redis == nil {
			// No redis to block on; wait for the channel instead.
			select {
			case <-ctx.Done():
				return
			case t := <-w.queue:
				w.processTask(ctx, t)
			}
		}
	}
}

func (w *ExportWorker) tryLocalQueue() (exportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return exportTask{}, false
	}
}

func (w *ExportWorker) tryRedis(ctx context.Context) (exportTask, bool) {
	if w.redis == nil {
		return exportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
			w.logger.Warn().Err(err).Msg("redis BRPOP error")
		}
		return exportTask{}, false
	}
	if len(res) != 2 {
		return exportTask{}, false
	}
	var task exportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("failed to decode export task")
		return exportTask{}, false
	}
	return task, true
}

func (w *ExportWorker) processTask(ctx context.Context, task exportTask) {
	path, err := w.exporter.ExportSchedule(ctx, task.Date)
	if err == nil {
		w.logger.Debug().Str("date", task.Date).Str("path", path).Msg("export task done")
		return
	}

	task.RetryCount++
	if task.RetryCount >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(err).Str("date", task.Date).Int("attempts", task.RetryCount).Msg("export task failed permanently")
		w.pushDeadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.RetryCount)
	w.logger.Warn().Err(err).Str("date", task.Date).Dur("delay", delay).Msg("export task failed, retrying")

	select {
	case <-ctx.Done():
	case <-time.After(delay):
		if err := w.requeue(ctx, task); err != nil {
			w.logger.Error().Err(err).Str("date", task.Date).Msg("failed to requeue export task")
		}
	}
}

func (w *ExportWorker) requeue(ctx context.Context, task exportTask) error {
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err == nil {
			return nil
		}
	}
	select {
	case w.queue <- task:
		return nil
	default:
		return errors.New("export queue is full")
	}
}

func (w *ExportWorker) pushRedis(ctx context.Context, task exportTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ExportWorker) pushDeadLetter(ctx context.Context, task exportTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("date", task.Date).Msg("dead letter push failed")
	}
}
