package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/contextinator/contextinator/internal/embedding"
)

// embedProgressBar renders embedding.Progress updates from a channel onto a
// terminal progress bar, the same way the teacher renders file/embedding
// progress during indexing.
func embedProgressBar(quiet bool, total int, progressCh <-chan embedding.Progress, done <-chan struct{}) {
	if quiet {
		<-done
		return
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Embedding chunks"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("chunks/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)

	last := 0
	for {
		select {
		case p, ok := <-progressCh:
			if !ok {
				return
			}
			if delta := p.ProcessedChunks - last; delta > 0 {
				bar.Add(delta)
				last = p.ProcessedChunks
			}
		case <-done:
			return
		}
	}
}
