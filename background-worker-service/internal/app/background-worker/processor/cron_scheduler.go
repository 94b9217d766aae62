package processor

import (
	"context"

	"reviewcatalog/background-worker-service/internal/app/background-worker/service"
	"reviewcatalog/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически пересчитывает все сводки рейтинга
// Расписание в формате с секундами: "0 */30 * * * *"
type CronScheduler struct {
	cron      *cron.Cron
	ratingSvc service.RatingServiceInterface
}

func NewCronScheduler(ratingSvc service.RatingServiceInterface) *CronScheduler {
	cronLog := cronLogger{}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &CronScheduler{
		cron:      c,
		ratingSvc: ratingSvc,
	}
}

// Start регистрирует задачу, запускает планировщик и сразу выполняет первый пересчет
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Debug().Msg("Cron job triggered: recalculating rating summaries")
		s.recalculate(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	logger.Info().Msg("Performing initial rating recalculation")
	s.recalculate(ctx)

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *CronScheduler) recalculate(ctx context.Context) {
	if err := s.ratingSvc.RecalculateAll(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to recalculate rating summaries")
	}
}

// cronLogger направляет логи robfig/cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
