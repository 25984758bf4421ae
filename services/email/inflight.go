package emailsvc

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// inflight tracks the goroutines sending emails.
type inflight struct {
	wg sync.WaitGroup
}

func (f *inflight) run(send func()) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		send()
	}()
}

func (f *inflight) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for emails to be sent")
	}
}
