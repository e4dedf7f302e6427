package pipeline

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress receives step transitions from the Runner.
type Progress interface {
	Start(label string)
	Done()
	Finish()
}

// bar renders step progress with a terminal progress bar.
type bar struct {
	pb *progressbar.ProgressBar
}

// NewProgressBar returns a Progress drawing a bar for total steps on w.
func NewProgressBar(total int, w io.Writer) Progress {
	pb := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("[Generating]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	return &bar{pb: pb}
}

func (b *bar) Start(label string) {
	b.pb.Describe(fmt.Sprintf("[Generating] %s", label))
}

func (b *bar) Done() {
	_ = b.pb.Add(1)
}

func (b *bar) Finish() {
	_ = b.pb.Finish()
}

type noProgress struct{}

func (noProgress) Start(string) {}
func (noProgress) Done() {}
func (noProgress) Finish() {}
