package backend

import (
	"encoding/json"
	"strconv"
)

const (
	// Placeholder stands in for a classification field the server left out.
	Placeholder   = "—"
	NoExplanation = "No explanation provided."
	nonJSONError  = "Non-JSON response"
)

// ClassificationResult is the decoded /classify-text/ response with
// display defaults already applied.
type ClassificationResult struct {
	Prediction  string
	IsTrue      *bool
	Confidence  string
	Explanation string
}

// IsTrueText renders IsTrue as "true", "false" or the placeholder.
func (r ClassificationResult) IsTrueText() string {
	if r.IsTrue == nil {
		return Placeholder
	}
	return strconv.FormatBool(*r.IsTrue)
}

// UploadResult is the decoded /detect/ response.
type UploadResult struct {
	Transcription string
}

type classifyRequest struct {
	Message string `json:"message"`
}

// rawClassification keeps every field raw so type mismatches fall back to
// defaults instead of failing the whole decode.
type rawClassification struct {
	Prediction  json.RawMessage `json:"prediction"`
	IsTrue      json.RawMessage `json:"is_true"`
	Confidence  json.RawMessage `json:"confidence"`
	Explanation json.RawMessage `json:"explanation"`
	Error       json.RawMessage `json:"error"`
}

type rawUpload struct {
	Transcription json.RawMessage `json:"transcription"`
	Error         json.RawMessage `json:"error"`
}

func (raw rawClassification) result() ClassificationResult {
	res := ClassificationResult{
		Prediction:  textField(raw.Prediction),
		Confidence:  confidenceText(raw.Confidence),
		Explanation: textField(raw.Explanation),
	}
	if res.Prediction == "" {
		res.Prediction = Placeholder
	}
	if res.Explanation == "" {
		res.Explanation = NoExplanation
	}
	switch string(raw.IsTrue) {
	case "true":
		t := true
		res.IsTrue = &t
	case "false":
		f := false
		res.IsTrue = &f
	}
	return res
}

// textField returns a JSON string's value, "" for absent or null, and the
// raw JSON text for any other type.
func textField(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// confidenceText falls back only on null or absent; 0 is a valid confidence.
func confidenceText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return Placeholder
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return textField(raw)
}
