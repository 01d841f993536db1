package csv

import (
	"io"
	"sync"

	"github.com/urbint/csvstream"
)

// Start drains r under ctrl, the way ingest.Streamer relays a channel:
// ctrl.WorkerStart/WorkerEnd bracket the draining goroutine, ctrl.Quit
// stops it early, and any terminal error is sent to ctrl.Err rather
// than returned. Use Next/ReadAll directly for a simple single-stream
// pull; use Start when a Reader is one stage of a larger Controller-
// supervised pipeline.
func (r *Reader[T]) Start(ctrl *ingest.Controller) <-chan T {
	out := make(chan T)

	if r.opts.CancellationToken == nil {
		r.opts.CancellationToken = ingest.NewCancelToken()
		r.sig = r.opts.cancelSignal()
	}

	done := make(chan struct{})

	ctrl.WorkerStart()
	go func() {
		defer ctrl.WorkerEnd()
		defer close(out)
		defer close(done)
		go func() {
			select {
			case <-ctrl.Quit:
				r.opts.CancellationToken.Cancel()
			case <-done:
			}
		}()
		for {
			v, err := r.Next()
			if err != nil {
				if err != io.EOF {
					ctrl.Err <- err
				}
				return
			}
			select {
			case <-ctrl.Quit:
				return
			case out <- v:
			}
		}
	}()

	return out
}

// RunMany runs several Readers concurrently, each under its own root
// Controller linked to ctrl (each Reader's errors are relayed up to
// ctrl.Err, and closing ctrl.Quit aborts every Reader), and fans their
// output into one channel. It blocks nothing
// itself; the returned channel closes once every Reader has drained —
// ingest.DependencyGroup is what tracks that, the way the root package
// doc describes letting a consumer not know its dependency count ahead
// of time (one Reader per file discovered at runtime, say).
func RunMany[T any](ctrl *ingest.Controller, readers ...*Reader[T]) <-chan T {
	out := make(chan T)
	deps := ingest.NewDependencyGroup()
	var forwarders sync.WaitGroup

	for _, r := range readers {
		readerCtrl := ingest.NewController()
		deps.SetCtrls(readerCtrl)

		go func() {
			<-ctrl.Quit
			readerCtrl.Abort()
		}()
		go func() {
			for err := range relayErrs(readerCtrl) {
				select {
				case ctrl.Err <- err:
				case <-ctrl.Quit:
					return
				}
			}
		}()

		rows := r.Start(readerCtrl)
		forwarders.Add(1)
		go func() {
			defer forwarders.Done()
			for v := range rows {
				select {
				case <-ctrl.Quit:
					return
				case out <- v:
				}
			}
		}()
	}

	go func() {
		deps.Wait()
		forwarders.Wait()
		close(out)
	}()

	return out
}

// Import wraps a Reader in an ingest.Importer, the teacher's
// batteries-included way to run a task end-to-end without hand-wiring
// the Controller: Run drains every row through handle and reports
// handle's first error (or a terminal Fault from the Reader itself).
func Import[T any](r *Reader[T], handle func(T) error) *ingest.Importer {
	return ingest.NewImporter(func(ctrl *ingest.Controller) error {
		rows := r.Start(ctrl)
		for {
			select {
			case <-ctrl.Quit:
				return ingest.ErrAborted
			case err := <-ctrl.Err:
				return err
			case v, ok := <-rows:
				if !ok {
					return nil
				}
				if err := handle(v); err != nil {
					return err
				}
			}
		}
	})
}

// relayErrs forwards every error sent to ctrl.Err until ctrl's workers
// finish, then closes.
func relayErrs(ctrl *ingest.Controller) <-chan error {
	out := make(chan error)
	go func() {
		defer close(out)
		done := ctrl.Done()
		for {
			select {
			case err := <-ctrl.Err:
				out <- err
			case <-done:
				return
			}
		}
	}()
	return out
}
