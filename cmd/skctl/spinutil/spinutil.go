package spinutil

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

type Spinner struct {
	spin *spinner.Spinner
}

// Start shows a spinner if stdout is a terminal, otherwise it's a no-op.
func Start(color string, message string) *Spinner {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return &Spinner{}
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Color(color)
	spin.Suffix = " " + message
	spin.Start()

	return &Spinner{spin}
}

func (s *Spinner) Stop() {
	if s.spin != nil {
		s.spin.Stop()
	}
}
