package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reviewpilot/internal/app/autoresponder/config"
	"reviewpilot/internal/app/autoresponder/entity"
	"reviewpilot/internal/app/autoresponder/infrastructure"
	"reviewpilot/internal/app/autoresponder/service"
	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Верхняя граница одного прохода пайплайна
const sweepTimeout = 5 * time.Minute

type businessJob struct {
	entryID cron.EntryID
	spec    string
}

// JobManager владеет реестром recurring-задач авто-ответчика:
// не более одной задачи на бизнес плюс один глобальный обход.
// Все мутации реестра сериализованы одним мьютексом; per-business
// in-flight флаг не дает тикам одного бизнеса перекрываться.
// Реестр живет в памяти процесса и не переживает рестарт.
type JobManager struct {
	cron        *cron.Cron
	pipeline    service.ReviewServiceInterface
	credentials infrastructure.CredentialProvider
	defaultSpec string
	sweepSpec   string

	mu       sync.Mutex
	jobs     map[string]*businessJob
	inFlight map[string]bool
}

// NewJobManager создает новый менеджер задач.
// Включена секундная гранулярность cron-выражений (6 полей).
func NewJobManager(
	pipeline service.ReviewServiceInterface,
	credentials infrastructure.CredentialProvider,
	cfg config.SchedulerConfig,
) *JobManager {
	return &JobManager{
		cron:        cron.New(cron.WithSeconds()),
		pipeline:    pipeline,
		credentials: credentials,
		defaultSpec: cfg.DefaultCron,
		sweepSpec:   cfg.SweepCron,
		jobs:        make(map[string]*businessJob),
		inFlight:    make(map[string]bool),
	}
}

// Run запускает планировщик: регистрирует глобальный обход и стартует cron
func (m *JobManager) Run() error {
	_, err := m.cron.AddFunc(m.sweepSpec, m.runSweep)
	if err != nil {
		return fmt.Errorf("failed to register global sweep: %w", err)
	}

	m.cron.Start()
	logger.Info().
		Str("sweep_spec", m.sweepSpec).
		Msg("Job manager started")

	return nil
}

// Shutdown останавливает cron и дожидается завершения запущенных задач
func (m *JobManager) Shutdown() {
	logger.Info().Msg("Stopping job manager...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Job manager stopped")
}

// Start регистрирует recurring-задачу для бизнеса.
// Существующая задача этого бизнеса сначала снимается: двух одновременных
// задач на один бизнес не бывает.
func (m *JobManager) Start(businessID, spec string) error {
	if spec == "" {
		spec = m.defaultSpec
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.jobs[businessID]; ok {
		m.cron.Remove(existing.entryID)
		delete(m.jobs, businessID)
	}

	entryID, err := m.cron.AddFunc(spec, func() {
		m.runBusiness(businessID)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	m.jobs[businessID] = &businessJob{entryID: entryID, spec: spec}
	metrics.ActiveJobs.Set(float64(len(m.jobs)))

	logger.Info().
		Str("business_id", businessID).
		Str("cron", spec).
		Msg("Auto-responder job started")

	return nil
}

// Stop снимает задачу бизнеса; отсутствие задачи - no-op.
// Отменяются только будущие тики: уже идущий проход дорабатывает до конца.
func (m *JobManager) Stop(businessID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[businessID]
	if !ok {
		return
	}

	m.cron.Remove(job.entryID)
	delete(m.jobs, businessID)
	metrics.ActiveJobs.Set(float64(len(m.jobs)))

	logger.Info().
		Str("business_id", businessID).
		Msg("Auto-responder job stopped")
}

// Status сообщает, активна ли задача бизнеса, и время следующего запуска.
// Никогда не падает, даже если задача не создавалась.
func (m *JobManager) Status(businessID string) (bool, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[businessID]
	if !ok {
		return false, time.Time{}
	}

	entry := m.cron.Entry(job.entryID)
	return true, entry.Next
}

// runBusiness выполняет один проход пайплайна для бизнеса.
// Если предыдущий тик этого бизнеса еще в полете, новый пропускается:
// два параллельных прохода одного бизнеса - гонка на публикацию.
func (m *JobManager) runBusiness(businessID string) {
	if !m.tryAcquire(businessID) {
		logger.Debug().
			Str("business_id", businessID).
			Msg("Previous sweep still in flight, skipping tick")
		return
	}
	defer m.release(businessID)

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	if err := m.pipeline.ProcessBusiness(ctx, businessID); err != nil {
		logger.Error().
			Err(err).
			Str("business_id", businessID).
			Msg("Sweep failed")
	}
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
}

// runSweep - глобальный обход: прогоняет пайплайн по всем бизнесам
// с привязанным аккаунтом платформы, независимо от per-business задач.
// Гарантирует продвижение даже там, где ручная задача не запускалась.
func (m *JobManager) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	links, err := m.credentials.ListLinkedBusinesses(ctx, entity.ProviderFacebook)
	if err != nil {
		logger.Error().Err(err).Msg("Global sweep: failed to list linked businesses")
		return
	}

	var wg sync.WaitGroup
	for _, link := range links {
		wg.Add(1)
		go func(businessID string) {
			defer wg.Done()
			m.runBusiness(businessID)
		}(link.BusinessID)
	}
	wg.Wait()
}

func (m *JobManager) tryAcquire(businessID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight[businessID] {
		return false
	}
	m.inFlight[businessID] = true
	return true
}

func (m *JobManager) release(businessID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, businessID)
}
