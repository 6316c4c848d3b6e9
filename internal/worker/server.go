package worker

import (
	"log"

	"github.com/hibiken/asynq"

	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
)

// Run starts the asynq server and scheduler and blocks until the
// server stops. The scheduler enqueues the periodic sweeps; the
// server executes them. Both share the Redis instance used by the
// rate limiter.
func Run(redisOpt asynq.RedisClientOpt, h *Handlers, policy config.Policy) error {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReaperSweep, h.HandleReaperSweep)
	mux.HandleFunc(TypeAttendeeReconcile, h.HandleAttendeeReconcile)
	mux.HandleFunc(TypeReminderMail, h.HandleReminderMail)
	mux.HandleFunc(TypeSurveyMail, h.HandleSurveyMail)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	register := func(spec, taskType string) {
		if _, err := scheduler.Register(spec, asynq.NewTask(taskType, nil)); err != nil {
			log.Fatalf("scheduler: register %s failed: %v", taskType, err)
		}
	}
	register("@every "+policy.ReaperInterval.String(), TypeReaperSweep)
	register("@every 30m", TypeAttendeeReconcile)
	register("@every "+policy.MailInterval.String(), TypeReminderMail)
	register("@every "+policy.MailInterval.String(), TypeSurveyMail)

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("scheduler failed to start: %v", err)
		}
	}()

	return srv.Run(mux)
}
