package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MikeSquared-Agency/parley/internal/chat"
	"github.com/MikeSquared-Agency/parley/internal/transcript"
)

// Controller is the chat surface the terminal drives.
type Controller interface {
	SubmitText(ctx context.Context, text string)
	ToggleDropdown() bool
	DismissDropdown()
	PickUpload(kind chat.Kind)
	FileSelected(ctx context.Context, kind chat.Kind, files []chat.File)
}

// Session is a line-oriented chat front end. It doubles as the controller's
// input field and file chooser: picking an upload kind turns the next line
// into a file path.
type Session struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	outMu    sync.Mutex
	mu       sync.Mutex
	pending  chat.Kind
	selected map[chat.Kind]string
	actions  sync.WaitGroup
}

func NewSession(in io.Reader, out io.Writer, logger *slog.Logger) *Session {
	return &Session{
		in:       in,
		out:      out,
		logger:   logger,
		selected: make(map[chat.Kind]string),
	}
}

// Clear is a no-op: the line has already been consumed by the reader.
func (s *Session) Clear() {}

// Choose arms the chooser for kind and prompts for a path.
func (s *Session) Choose(kind chat.Kind) {
	s.mu.Lock()
	s.pending = kind
	s.mu.Unlock()
	s.printf("%s file path (empty to cancel): ", kind)
}

// Reset forgets the path selected for kind.
func (s *Session) Reset(kind chat.Kind) {
	s.mu.Lock()
	delete(s.selected, kind)
	s.mu.Unlock()
}

// Selected returns the path currently held by the input for kind.
func (s *Session) Selected(kind chat.Kind) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.selected[kind]
	return path, ok
}

// Print is a transcript.Observer rendering each message as plain text.
func (s *Session) Print(msg transcript.ChatMessage) {
	text := chat.PlainText(msg.Content)
	text = strings.ReplaceAll(text, "\n", "\n    ")
	s.printf("%s: %s\n", msg.Role.Label(), text)
}

// Run reads lines until EOF, /quit or ctx is done, then waits for any
// in-flight actions to finish. Actions already started are not cancelled.
func (s *Session) Run(ctx context.Context, ctrl Controller) error {
	s.printf("Type a claim to fact-check. /upload for attachments, /quit to exit.\n")
	defer s.actions.Wait()

	actx := context.WithoutCancel(ctx)
	lines, errc, stop := s.readLines()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errc; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			if quit := s.handleLine(actx, ctrl, line); quit {
				return nil
			}
		}
	}
}

// readLines scans input on its own goroutine so Run can also watch ctx.
func (s *Session) readLines() (<-chan string, <-chan error, func()) {
	lines := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc, func() { close(done) }
}

func (s *Session) handleLine(ctx context.Context, ctrl Controller, line string) bool {
	if kind := s.takePending(); kind != "" {
		s.selectFile(ctx, ctrl, kind, strings.TrimSpace(line))
		return false
	}

	cmd := strings.TrimSpace(line)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/upload":
		if ctrl.ToggleDropdown() {
			s.printf("  /audio  /video  /document\n")
		}
		return false
	}

	if name, ok := strings.CutPrefix(cmd, "/"); ok {
		if kind, ok := chat.ParseKind(name); ok {
			ctrl.PickUpload(kind)
			return false
		}
		s.printf("unknown command %s\n", cmd)
		return false
	}

	// Anything typed outside the menu closes it, like a click elsewhere.
	ctrl.DismissDropdown()
	s.spawn(func() { ctrl.SubmitText(ctx, line) })
	return false
}

func (s *Session) selectFile(ctx context.Context, ctrl Controller, kind chat.Kind, path string) {
	if path == "" {
		ctrl.FileSelected(ctx, kind, nil)
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.logger.Debug("file selection rejected", "kind", kind, "path", path)
		s.printf("no such file: %s\n", path)
		ctrl.FileSelected(ctx, kind, nil)
		return
	}
	s.mu.Lock()
	s.selected[kind] = path
	s.mu.Unlock()
	s.spawn(func() { ctrl.FileSelected(ctx, kind, []chat.File{LocalFile(path)}) })
}

// takePending disarms the chooser and returns the kind it was armed for.
func (s *Session) takePending() chat.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := s.pending
	s.pending = ""
	return kind
}

func (s *Session) spawn(fn func()) {
	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		fn()
	}()
}

func (s *Session) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// LocalFile is a file on disk picked by path.
type LocalFile string

func (f LocalFile) Name() string { return filepath.Base(string(f)) }

func (f LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}
