package semaphore

import "context"

type Semaphore struct {
	ch chan struct{}
}

func New(max int) *Semaphore {
	sema := &Semaphore{
		ch: make(chan struct{}, max),
	}
	for i := 0; i < max; i++ {
		sema.ch <- struct{}{}
	}

	return sema
}

func (sema *Semaphore) Acquire() {
	<-sema.ch
}

// AcquireContext waits for a slot or for ctx to end.
func (sema *Semaphore) AcquireContext(ctx context.Context) error {
	select {
	case <-sema.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (sema *Semaphore) Release() {
	sema.ch <- struct{}{}
}
