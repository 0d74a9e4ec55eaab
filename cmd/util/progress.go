package util

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar renders upload progress on the terminal.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a progress bar that counts up to 100 percent.
func NewProgressBar(out io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			io.WriteString(out, "\n")
		}),
	)
	return &ProgressBar{bar: bar}
}

// Progress updates the bar to `percent`.
func (p *ProgressBar) Progress(percent int) {
	p.bar.Set(percent)
}

// Done completes the bar.
func (p *ProgressBar) Done() {
	p.bar.Finish()
}
