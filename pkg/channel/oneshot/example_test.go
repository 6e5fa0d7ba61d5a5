package oneshot_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnykmshr/wakeflow/pkg/channel/oneshot"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
)

func Example() {
	tx, rx := oneshot.New[string]()
	defer rx.Close()

	go func() {
		defer tx.Close()
		_ = tx.Send("pong")
	}()

	reply, err := rx.Recv(context.Background())
	fmt.Println(reply, err)

	// Output:
	// pong <nil>
}

func Example_receiverDropped() {
	tx, rx := oneshot.New[int]()
	rx.Close()

	err := tx.Send(42)

	var serr *wferrors.SendError[int]
	if errors.As(err, &serr) {
		fmt.Println("returned:", serr.Value, errors.Is(err, wferrors.ErrReceiverDropped))
	}

	// Output:
	// returned: 42 true
}
