package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/imayankmani/attendance-management-system/internal/activity"
	"github.com/imayankmani/attendance-management-system/internal/config"
	"github.com/imayankmani/attendance-management-system/internal/queue"
	"github.com/imayankmani/attendance-management-system/internal/recognizer"
	"github.com/imayankmani/attendance-management-system/internal/store"
	"github.com/imayankmani/attendance-management-system/internal/student"
)

// Worker consumes face-enrollment jobs and invokes the external recognizer
// for each. Enrollment failures leave the student's face encoding empty; the
// terminal treats such students as having no biometric profile.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "attendance:enroll")
	}

	activityLog := activity.NewLog(db.Client)
	rec := recognizer.NewSubprocess(cfg.PythonBin, cfg.FrameScript, cfg.EnrollScript, cfg.FrameTimeout)

	messages, err := jobs.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for enrollment jobs...")
	for msg := range messages {
		if msg.Type != "enroll_face" {
			continue
		}

		var job student.EnrollJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Printf("bad enroll job payload: %v", err)
			continue
		}

		log.Printf("enrolling face for student %s", job.StudentID)
		if err := rec.RegisterFace(ctx, job.StudentID, job.Name, job.Email, job.PhotoPath); err != nil {
			log.Printf("enrollment failed for %s: %v", job.StudentID, err)
			activityLog.Append(ctx, fmt.Sprintf("face enrollment failed for student %s", job.StudentID))
			continue
		}
		activityLog.Append(ctx, fmt.Sprintf("face enrolled for student %s", job.StudentID))
		log.Printf("student %s enrolled", job.StudentID)
	}

	log.Println("worker stopped")
}
