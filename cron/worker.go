package cron

import (
	"context"
	"log"
	"time"

	"tradepost/config"
	"tradepost/services/sweeper"
	"tradepost/services/tasks"

	"github.com/hibiken/asynq"
)

// InitSweepWorker starts the async worker consuming sweep tasks and the
// periodic loop that enqueues them. Uniqueness on the task plus the sweeper's
// own in-process guard ensure a new sweep never starts while one is running.
func InitSweepWorker(sw *sweeper.Sweeper) (stop func()) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeListingSweep, handleSweepTask(sw))

	go func() {
		log.Println("[SweepWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SweepWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SweepWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	client := asynq.NewClient(redisOpts)
	interval := config.SweepInterval()
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		enqueue := func() {
			task, opts := tasks.NewSweepTask(interval)
			if _, err := client.Enqueue(task, opts...); err != nil && err != asynq.ErrDuplicateTask {
				log.Printf("[SweepWorker] failed to enqueue sweep: %v", err)
			}
		}

		enqueue()
		for {
			select {
			case <-ticker.C:
				enqueue()
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = client.Close()
		srv.Shutdown()
	}
}

func handleSweepTask(sw *sweeper.Sweeper) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		result, err := sw.Sweep(ctx)
		if err == sweeper.ErrSweepInProgress {
			log.Println("[SweepWorker] sweep still running, skipping tick")
			return nil
		}
		if err != nil {
			return err
		}
		if result.Processed > 0 || len(result.Failed) > 0 {
			log.Printf("[SweepWorker] processed=%d failed=%d", result.Processed, len(result.Failed))
		}
		return nil
	}
}
