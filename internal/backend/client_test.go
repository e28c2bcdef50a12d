package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestClassifyText_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != ClassifyPath {
			t.Errorf("expected path %s, got %s", ClassifyPath, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept application/json, got %q", r.Header.Get("Accept"))
		}

		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Message != "the sky is blue" {
			t.Errorf("unexpected message %q", req.Message)
		}

		writeJSON(w, http.StatusOK, `{"prediction":"Real","is_true":true,"confidence":0.87,"explanation":"Rayleigh scattering."}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil, discardLogger())
	res, err := c.ClassifyText(context.Background(), "the sky is blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Prediction != "Real" {
		t.Errorf("expected prediction Real, got %q", res.Prediction)
	}
	if res.IsTrueText() != "true" {
		t.Errorf("expected is_true true, got %q", res.IsTrueText())
	}
	if res.Confidence != "0.87" {
		t.Errorf("expected confidence 0.87, got %q", res.Confidence)
	}
	if res.Explanation != "Rayleigh scattering." {
		t.Errorf("unexpected explanation %q", res.Explanation)
	}
}

func TestClassifyText_Defaults(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantPrediction string
		wantIsTrue     string
		wantConfidence string
		wantExpl       string
	}{
		{"only prediction", `{"prediction":"Fake"}`, "Fake", Placeholder, Placeholder, NoExplanation},
		{"empty object", `{}`, Placeholder, Placeholder, Placeholder, NoExplanation},
		{"null fields", `{"prediction":"Fact","is_true":null,"confidence":null,"explanation":null}`, "Fact", Placeholder, Placeholder, NoExplanation},
		{"zero confidence kept", `{"prediction":"Fact","is_true":false,"confidence":0}`, "Fact", "false", "0", NoExplanation},
		{"integer confidence", `{"prediction":"Fact","confidence":87}`, "Fact", Placeholder, "87", NoExplanation},
		{"non-boolean is_true", `{"prediction":"Fact","is_true":"yes"}`, "Fact", Placeholder, Placeholder, NoExplanation},
		{"empty explanation", `{"prediction":"News","explanation":""}`, "News", Placeholder, Placeholder, NoExplanation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil, discardLogger())
			res, err := c.ClassifyText(context.Background(), "x")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Prediction != tt.wantPrediction {
				t.Errorf("Prediction = %q, want %q", res.Prediction, tt.wantPrediction)
			}
			if res.IsTrueText() != tt.wantIsTrue {
				t.Errorf("IsTrueText() = %q, want %q", res.IsTrueText(), tt.wantIsTrue)
			}
			if res.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %q, want %q", res.Confidence, tt.wantConfidence)
			}
			if res.Explanation != tt.wantExpl {
				t.Errorf("Explanation = %q, want %q", res.Explanation, tt.wantExpl)
			}
		})
	}
}

func TestClassifyText_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMsg     string
	}{
		{"server error field", http.StatusBadRequest, "application/json", `{"error":"bad input"}`, "bad input"},
		{"status only", http.StatusInternalServerError, "application/json", `{}`, "HTTP 500"},
		{"non-json failure", http.StatusBadGateway, "text/html", `<h1>Bad Gateway</h1>`, "Non-JSON response"},
		{"non-json success", http.StatusOK, "text/plain", `ok`, "Non-JSON response"},
		{"malformed json success", http.StatusOK, "application/json", `{"prediction":`, "Non-JSON response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil, discardLogger())
			_, err := c.ClassifyText(context.Background(), "x")
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestClassifyText_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(url, nil, nil, discardLogger())
	_, err := c.ClassifyText(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
}

func TestDetectMedia_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DetectPath {
			t.Errorf("expected path %s, got %s", DetectPath, r.URL.Path)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Errorf("expected X-Requested-With XMLHttpRequest, got %q", r.Header.Get("X-Requested-With"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept application/json, got %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("X-CSRFToken") != "tok-123" {
			t.Errorf("expected X-CSRFToken tok-123, got %q", r.Header.Get("X-CSRFToken"))
		}

		file, header, err := r.FormFile(UploadFieldName)
		if err != nil {
			t.Fatalf("expected %s form file: %v", UploadFieldName, err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "clip.mp3" {
			t.Errorf("expected filename clip.mp3, got %q", header.Filename)
		}
		if string(data) != "RIFFDATA" {
			t.Errorf("unexpected file content %q", data)
		}

		writeJSON(w, http.StatusOK, `{"status":"success","transcription":"hello world"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, staticToken("tok-123"), discardLogger())
	res, err := c.DetectMedia(context.Background(), "clip.mp3", strings.NewReader("RIFFDATA"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Transcription != "hello world" {
		t.Errorf("expected transcription, got %q", res.Transcription)
	}
}

func TestDetectMedia_EmptyTokenWithoutSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Csrftoken"]; !ok {
			t.Error("expected X-CSRFToken header to be present")
		}
		if r.Header.Get("X-CSRFToken") != "" {
			t.Errorf("expected empty token, got %q", r.Header.Get("X-CSRFToken"))
		}
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil, discardLogger())
	res, err := c.DetectMedia(context.Background(), "a.wav", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Transcription != "" {
		t.Errorf("expected no transcription, got %q", res.Transcription)
	}
}

func TestDetectMedia_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMsg     string
	}{
		{"error field on failure", http.StatusBadRequest, "application/json", `{"error":"Conversion failed: bad header"}`, "Conversion failed: bad header"},
		{"error field on success", http.StatusOK, "application/json", `{"error":"No input provided"}`, "No input provided"},
		{"status only", http.StatusInternalServerError, "application/json", `{}`, "HTTP 500"},
		{"text body", http.StatusRequestEntityTooLarge, "text/plain", `file too large`, "file too large"},
		{"empty text body", http.StatusForbidden, "text/html", ``, "HTTP 403"},
		{"malformed json", http.StatusOK, "application/json", `{`, "Non-JSON response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil, discardLogger())
			_, err := c.DetectMedia(context.Background(), "a.wav", strings.NewReader("x"))
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://backend:8000/", nil, nil, discardLogger())
	if c.baseURL != "http://backend:8000" {
		t.Errorf("expected trimmed base url, got %q", c.baseURL)
	}
}
