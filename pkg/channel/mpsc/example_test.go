package mpsc_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/wakeflow/pkg/channel/mpsc"
)

func Example() {
	tx, rx := mpsc.New[int]()
	defer rx.Close()

	go func() {
		defer tx.Close()
		for i := 0; i < 3; i++ {
			_ = tx.Send(i)
		}
	}()

	for v := range rx.All(context.Background()) {
		fmt.Println(v)
	}

	// Output:
	// 0
	// 1
	// 2
}
