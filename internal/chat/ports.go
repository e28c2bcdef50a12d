package chat

import (
	"context"
	"io"

	"github.com/MikeSquared-Agency/parley/internal/backend"
)

// Kind is an upload category offered by the attach dropdown.
type Kind string

const (
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

// ParseKind maps a dropdown item's data-kind value to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindAudio, KindVideo, KindDocument:
		return k, true
	}
	return "", false
}

// Backend is the remote classification and transcription service.
type Backend interface {
	ClassifyText(ctx context.Context, message string) (backend.ClassificationResult, error)
	DetectMedia(ctx context.Context, filename string, content io.Reader) (backend.UploadResult, error)
}

// File is a single user-selected file.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileChooser owns one hidden file input per Kind.
type FileChooser interface {
	// Choose presents the OS-level picker for kind. Selection is reported
	// back through Controller.FileSelected.
	Choose(kind Kind)
	// Reset clears the input's selected value so the same file can be picked again.
	Reset(kind Kind)
}

// InputField is the chat text box.
type InputField interface {
	Clear()
}
