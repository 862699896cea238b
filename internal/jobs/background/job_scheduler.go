package background

import (
	"context"
	"log"
	"sync"
	"time"

	"rentgrid/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const (
	discoveryInterval   = 60 * time.Second
	healthCheckInterval = 30 * time.Second
	archiveInterval     = 24 * time.Hour
)

// JobScheduler manages the periodic control-plane jobs
type JobScheduler struct {
	scheduler    gocron.Scheduler
	discoverySvc services.DiscoveryService
	healthSvc    services.HealthService
	archiveSvc   services.ArchiveService
	jobJobs      map[string]gocron.Job
	mu           sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(discoverySvc services.DiscoveryService, healthSvc services.HealthService,
	archiveSvc services.ArchiveService) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		discoverySvc: discoverySvc,
		healthSvc:    healthSvc,
		archiveSvc:   archiveSvc,
		jobJobs:      make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs. Discovery and health checks use
// singleton mode so a slow fleet never produces overlapping runs.
func (js *JobScheduler) registerJobs() {
	discoveryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(discoveryInterval),
		gocron.NewTask(js.runDiscovery, context.Background()),
		gocron.WithName("tenant-discovery"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create discovery job: %v", err)
	} else {
		js.jobJobs["discovery"] = discoveryJob
	}

	healthJob, err := js.scheduler.NewJob(
		gocron.DurationJob(healthCheckInterval),
		gocron.NewTask(js.runHealthChecks, context.Background()),
		gocron.WithName("health-checks"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create health check job: %v", err)
	} else {
		js.jobJobs["health"] = healthJob
	}

	archiveJob, err := js.scheduler.NewJob(
		gocron.DurationJob(archiveInterval),
		gocron.NewTask(js.runAuditArchive, context.Background()),
		gocron.WithName("audit-archive"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create audit archive job: %v", err)
	} else {
		js.jobJobs["audit-archive"] = archiveJob
	}

	log.Printf("Registered %d background jobs", len(js.jobJobs))
}

// runDiscovery scans all active tenants for reachable services
func (js *JobScheduler) runDiscovery(ctx context.Context) error {
	log.Printf("Starting tenant discovery scan")

	if err := js.discoverySvc.Scan(ctx); err != nil {
		log.Printf("Discovery scan failed: %v", err)
		return err
	}

	log.Printf("Completed tenant discovery scan")
	return nil
}

// runHealthChecks probes every registered service instance
func (js *JobScheduler) runHealthChecks(ctx context.Context) error {
	if err := js.healthSvc.RunHealthChecks(ctx); err != nil {
		log.Printf("Health check run failed: %v", err)
		return err
	}
	return nil
}

// runAuditArchive exports old audit entries to object storage
func (js *JobScheduler) runAuditArchive(ctx context.Context) error {
	log.Printf("Starting audit log archival")

	if err := js.archiveSvc.ArchiveAuditLogs(ctx); err != nil {
		log.Printf("Audit log archival failed: %v", err)
		return err
	}

	log.Printf("Completed audit log archival")
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)

	if err != nil {
		return err
	}

	js.jobJobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}

	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobJobs)
	jobs := make([]string, 0, len(js.jobJobs))

	for name := range js.jobJobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
