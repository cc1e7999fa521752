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
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// Spinner redraws one status line on stderr until stopped or until its
// context ends. Solver progress updates the detail text while it runs.
type Spinner struct {
	out    io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu      sync.Mutex
	message string
	detail  string
	width   int
	running bool
}

func newSpinner(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{out: os.Stderr, ctx: ctx, cancel: cancel, message: message}
}

// Start begins drawing. Later calls do nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.ctx.Err() != nil {
		return
	}
	s.running = true
	s.wg.Add(1)
	go s.loop()
}

func (s *Spinner) loop() {
	defer s.wg.Done()
	defer s.clear()
	tick := time.NewTicker(spinnerTick)
	defer tick.Stop()
	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			return
		case <-tick.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
		}
	}
}

// SetMessage replaces the status text and drops the detail.
func (s *Spinner) SetMessage(format string, args ...any) {
	s.mu.Lock()
	s.message, s.detail = fmt.Sprintf(format, args...), ""
	s.mu.Unlock()
}

// SetDetail sets the dim text after the message.
func (s *Spinner) SetDetail(format string, args ...any) {
	s.mu.Lock()
	s.detail = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.message
	if s.detail != "" {
		text += " · " + s.detail
	}
	line := styleSpinner.Render(frame) + " " + StyleDim.Render(text)
	w := lipgloss.Width(line)
	pad := max(s.width-w, 0)
	s.width = max(s.width, w)
	fmt.Fprint(s.out, "\r"+line+strings.Repeat(" ", pad))
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width)+"\r")
	}
}

// Stop ends drawing and clears the line. It is safe to call more than once
// and without Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

