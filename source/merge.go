package source

import (
	"io"
	"sync"

	"github.com/urbint/csvstream"
)

// Merge runs several Unzippers concurrently, each under its own root
// Controller, and fans their extracted members into one channel. The
// merged channel closes once every Unzipper has drained.
func Merge(unzippers ...*Unzipper) <-chan io.ReadCloser {
	out := make(chan io.ReadCloser)
	var wg sync.WaitGroup

	for _, u := range unzippers {
		ctrl := ingest.NewController()
		members := u.Start(ctrl)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range members {
				out <- m
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
