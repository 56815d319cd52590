package cmd

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// barTracker renders transfer progress as a terminal bar. Part workers
// report out of order, so only forward movement is drawn.
type barTracker struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	max  int64
	seen int64
}

func newBarTracker(w io.Writer, description string) *barTracker {
	return &barTracker{
		max: -1,
		bar: progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (b *barTracker) Update(transferred, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if total > 0 && total != b.max {
		b.max = total
		b.bar.ChangeMax64(total)
	}
	if transferred > b.seen {
		b.seen = transferred
		_ = b.bar.Set64(transferred)
	}
}

func (b *barTracker) Complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
}

func (b *barTracker) Error(error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Clear()
}
