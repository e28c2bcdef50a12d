package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/parley/internal/backend"
	"github.com/MikeSquared-Agency/parley/internal/transcript"
)

// Controller turns chat gestures into backend calls and transcript entries.
// Every method runs one action to completion; front ends call them on their
// own goroutines so several actions can be in flight at once.
type Controller struct {
	transcript transcript.Sink
	input      InputField
	chooser    FileChooser
	backend    Backend
	dropdown   *Dropdown
	logger     *slog.Logger
}

func NewController(sink transcript.Sink, input InputField, chooser FileChooser, b Backend, logger *slog.Logger) *Controller {
	return &Controller{
		transcript: sink,
		input:      input,
		chooser:    chooser,
		backend:    b,
		dropdown:   &Dropdown{},
		logger:     logger,
	}
}

func (c *Controller) Dropdown() *Dropdown {
	return c.dropdown
}

// SubmitText posts text for classification. Blank input is ignored.
// Otherwise exactly one user message and one assistant message are appended.
func (c *Controller) SubmitText(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.transcript.Append(transcript.RoleUser, renderUserText(text))
	c.input.Clear()
	c.transcript.ScrollToBottom()

	c.logger.Debug("submitting text for classification", "length", len(text))

	res, err := c.backend.ClassifyText(ctx, text)
	if err != nil {
		c.logActionError("classify text failed", err)
		c.transcript.Append(transcript.RoleAssistant, renderClassifyError(err))
	} else {
		c.logger.Info("classification received", "prediction", res.Prediction, "is_true", res.IsTrueText())
		c.transcript.Append(transcript.RoleAssistant, renderClassification(res))
	}
	c.transcript.ScrollToBottom()
}

// ToggleDropdown handles a click on the attach trigger button.
func (c *Controller) ToggleDropdown() bool {
	return c.dropdown.Toggle()
}

// DismissDropdown handles a click anywhere outside the menu.
func (c *Controller) DismissDropdown() {
	c.dropdown.Close()
}

// PickUpload handles a dropdown item. It closes the menu and opens the
// file picker for kind; unknown kinds only close the menu.
func (c *Controller) PickUpload(kind Kind) {
	c.dropdown.Close()
	if _, ok := ParseKind(string(kind)); !ok {
		c.logger.Debug("ignoring unknown upload kind", "kind", kind)
		return
	}
	c.chooser.Choose(kind)
}

// FileSelected handles a change on the file input for kind. Only the first
// file is used. The input is cleared afterwards in every case.
func (c *Controller) FileSelected(ctx context.Context, kind Kind, files []File) {
	defer c.chooser.Reset(kind)

	if len(files) == 0 {
		return
	}

	switch kind {
	case KindAudio, KindVideo:
		c.UploadMedia(ctx, files[0])
	case KindDocument:
		c.AttachDocument(files[0])
	default:
		c.logger.Warn("file selected for unknown upload kind", "kind", kind)
	}
}

// UploadMedia sends an audio or video file for transcription.
func (c *Controller) UploadMedia(ctx context.Context, f File) {
	name := f.Name()
	c.transcript.Append(transcript.RoleUser, renderAttachment(name))
	c.transcript.ScrollToBottom()

	c.logger.Debug("uploading media", "filename", name)

	res, err := c.detect(ctx, f)
	defer c.transcript.ScrollToBottom()

	if err != nil {
		c.logActionError("upload media failed", err)
		c.transcript.Append(transcript.RoleAssistant, renderUploadError(err))
		return
	}

	if res.Transcription != "" {
		c.logger.Info("transcription received", "filename", name, "length", len(res.Transcription))
		c.transcript.Append(transcript.RoleAssistant, renderTranscription(res.Transcription))
		return
	}
	c.transcript.Append(transcript.RoleAssistant, UploadComplete)
}

func (c *Controller) detect(ctx context.Context, f File) (backend.UploadResult, error) {
	rc, err := f.Open()
	if err != nil {
		return backend.UploadResult{}, err
	}
	defer rc.Close()
	return c.backend.DetectMedia(ctx, f.Name(), rc)
}

// AttachDocument acknowledges a document without contacting the backend;
// document processing is not available.
func (c *Controller) AttachDocument(f File) {
	c.transcript.Append(transcript.RoleUser, renderAttachment(f.Name()))
	c.transcript.Append(transcript.RoleAssistant, DocumentAck)
	c.transcript.ScrollToBottom()
}

func (c *Controller) logActionError(msg string, err error) {
	var apiErr *backend.APIError
	var tErr *backend.TransportError
	switch {
	case errors.As(err, &apiErr):
		c.logger.Warn(msg, "kind", "application", "status", apiErr.Status, "error", err)
	case errors.As(err, &tErr):
		c.logger.Warn(msg, "kind", "transport", "error", err)
	default:
		c.logger.Warn(msg, "error", err)
	}
}
