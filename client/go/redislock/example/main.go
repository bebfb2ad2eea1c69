// client/go/redislock/example/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avivl/redis-lock/client/go/redislock"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := redislock.NewLogger(redislock.LogLevelInfo)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	cfg, err := redislock.LoadConfig(os.Getenv("REDISLOCK_CONFIG"), logger)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client, err := redislock.New(ctx, cfg, redislock.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	// Five workers compete for one order; exactly one processes it at a time.
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			total, err := redislock.WithLock(ctx, client, "orders:42", 5*time.Second, 30*time.Second,
				func(ctx context.Context, holder string) (int, error) {
					fmt.Printf("worker %d holds orders:42 as %s\n", worker, holder)
					time.Sleep(200 * time.Millisecond)
					return worker * 10, nil
				})
			switch {
			case errors.Is(err, redislock.ErrAcquireTimeout):
				fmt.Printf("worker %d gave up waiting\n", worker)
			case err != nil:
				fmt.Printf("worker %d failed: %v\n", worker, err)
			default:
				fmt.Printf("worker %d computed %d\n", worker, total)
			}
		}(i)
	}
	wg.Wait()

	// At most two concurrent exports share the pool.
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			_, err := redislock.WithFairSemaphore(ctx, client, "exports", 2, 20*time.Second,
				func(ctx context.Context, holder string) (struct{}, error) {
					fmt.Printf("export %d running as %s\n", worker, holder)
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return struct{}{}, ctx.Err()
					}
					return struct{}{}, nil
				})
			if errors.Is(err, redislock.ErrAcquireFailed) {
				fmt.Printf("export %d: pool full, try later\n", worker)
			} else if err != nil {
				fmt.Printf("export %d failed: %v\n", worker, err)
			}
		}(i)
	}
	wg.Wait()
}
