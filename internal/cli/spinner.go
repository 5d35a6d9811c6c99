package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// StepSpinner shows the latest thinking-trace step next to a spinner while
// an utterance is processed. Its Step method is a model.StepFunc.
type StepSpinner struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	steps  int
}

// NewStepSpinner creates a spinner that draws on writer once the first step
// arrives.
func NewStepSpinner(writer io.Writer) *StepSpinner {
	if writer == nil {
		writer = os.Stderr
	}
	return &StepSpinner{writer: writer}
}

func (s *StepSpinner) start(description string) {
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription(description),
	)
}

// Step updates the spinner with message.
func (s *StepSpinner) Step(message string) {
	s.steps++
	description := "[cyan]" + message + "[reset]"
	if s.bar == nil {
		s.start(description)
	} else {
		s.bar.Describe(description)
	}
	if err := s.bar.Add(1); err != nil {
		slog.Warn("Failed to update step spinner", "error", err)
	}
}

// Steps returns how many steps were shown.
func (s *StepSpinner) Steps() int {
	return s.steps
}

// Done clears the spinner. It is safe to call when no step arrived.
func (s *StepSpinner) Done() {
	if s.bar == nil {
		return
	}
	if err := s.bar.Finish(); err != nil {
		slog.Warn("Failed to finish step spinner", "error", err)
	}
	s.bar = nil
}
