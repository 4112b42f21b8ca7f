package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/quillribbon/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on stderr while an archive converts.
// Once the archive is opened the line also counts decoded drawings, as in
// "Converting sky.quill... 3/12 drawings". The spinner stops on its own
// when ctx is cancelled.
type Spinner struct {
	label   string
	out     io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	total   int // drawings in the archive, 0 until known
	decoded int
	width   int // widest line written so far
}

// newSpinner creates a spinner for label bound to ctx.
func newSpinner(ctx context.Context, label string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		label:   label,
		out:     os.Stderr,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// SetTotal records how many drawings the archive holds and resets the count.
func (s *Spinner) SetTotal(drawings int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = drawings
	s.decoded = 0
}

// Advance counts one decoded drawing.
func (s *Spinner) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == 0 || s.decoded < s.total {
		s.decoded++
	}
}

// Message returns the text shown next to the animation.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message()
}

func (s *Spinner) message() string {
	if s.total == 0 {
		return s.label
	}
	return fmt.Sprintf("%s %d/%d drawings", s.label, s.decoded, s.total)
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(i)
			}
		}
	}()
}

// draw writes animation frame i.
func (s *Spinner) draw(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]) + " " + StyleDim.Render(s.message())
	s.width = max(s.width, lipgloss.Width(line))
	fmt.Fprintf(s.out, "\r%s", line)
}

// Stop stops the animation and clears the line. It may be called repeatedly.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner stopped because ctx was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// spinnerHooks feeds drawing progress into a spinner and forwards every
// event to the hooks it wraps.
type spinnerHooks struct {
	observability.PipelineHooks
	spinner *Spinner
}

func (h spinnerHooks) OnOpenComplete(ctx context.Context, size, drawings int, d time.Duration, err error) {
	if err == nil {
		h.spinner.SetTotal(drawings)
	}
	h.PipelineHooks.OnOpenComplete(ctx, size, drawings, d, err)
}

func (h spinnerHooks) OnDecodeComplete(ctx context.Context, node string, drawing, strokes int, d time.Duration, err error) {
	h.spinner.Advance()
	h.PipelineHooks.OnDecodeComplete(ctx, node, drawing, strokes, d, err)
}

// trackProgress routes pipeline events to s until the returned function is
// called.
func trackProgress(s *Spinner) (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(spinnerHooks{PipelineHooks: prev, spinner: s})
	return func() { observability.SetPipelineHooks(prev) }
}
