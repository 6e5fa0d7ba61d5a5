package workerpool_test

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/vnykmshr/wakeflow/pkg/scheduling/workerpool"
)

// Example demonstrates basic usage of the worker pool
func Example() {
	pool, err := workerpool.New(3, 10)
	if err != nil {
		log.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		n := i
		task := workerpool.TaskFunc(func(ctx context.Context) error {
			if n == 2 {
				return fmt.Errorf("task %d failed", n)
			}
			return nil
		})
		if err := pool.Submit(task); err != nil {
			log.Printf("Failed to submit task: %v", err)
		}
	}
	<-pool.Shutdown()

	var lines []string
	for result := range pool.Results().All(context.Background()) {
		lines = append(lines, fmt.Sprintf("task %d error=%v", result.TaskID, result.Error))
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Println(l)
	}

	// Output:
	// task 1 error=<nil>
	// task 2 error=task 2 failed
	// task 3 error=<nil>
}

// ExamplePool_SubmitAwait waits for one task without reading the shared
// results stream.
func ExamplePool_SubmitAwait() {
	pool, err := workerpool.New(2, 4)
	if err != nil {
		log.Fatal(err)
	}
	// Only awaited results are of interest here.
	pool.Results().Close()
	defer func() { <-pool.Shutdown() }()

	ctx := context.Background()
	answer := 0
	rx, err := pool.SubmitAwait(ctx, workerpool.TaskFunc(func(ctx context.Context) error {
		answer = 42
		return nil
	}))
	if err != nil {
		log.Fatal(err)
	}

	result, err := rx.Recv(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(answer, result.Error)

	// Output: 42 <nil>
}
