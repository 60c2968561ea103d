package server

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Request fields.
const (
	FieldLanguage    = "language"
	FieldAudioFormat = "audio_format"
	FieldAudioBase64 = "audio_base64"
)

// Response fields.
const (
	FieldPrediction               = "prediction"
	FieldConfidence               = "confidence"
	FieldClassificationConfidence = "classification_confidence"
	FieldScorer                   = "scorer"
	FieldRequestID                = "request_id"
)

// Request is a decoded DetectVoice request. Language is the caller's hint
// and is not used for detection.
type Request struct {
	Language    string
	AudioFormat string
	AudioBase64 string
}

// Struct encodes r for the wire.
func (r Request) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldLanguage:    structpb.NewStringValue(r.Language),
		FieldAudioFormat: structpb.NewStringValue(r.AudioFormat),
		FieldAudioBase64: structpb.NewStringValue(r.AudioBase64),
	}}
}

// ParseRequest decodes a request document. Every present field must be a
// string and audio_base64 must be non-empty.
func ParseRequest(in *structpb.Struct) (Request, error) {
	var r Request
	for name, dst := range map[string]*string{
		FieldLanguage:    &r.Language,
		FieldAudioFormat: &r.AudioFormat,
		FieldAudioBase64: &r.AudioBase64,
	} {
		v, ok := in.GetFields()[name]
		if !ok {
			continue
		}
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return Request{}, fmt.Errorf("field %q must be a string", name)
		}
		*dst = s.StringValue
	}
	if r.AudioBase64 == "" {
		return Request{}, fmt.Errorf("field %q is required", FieldAudioBase64)
	}
	return r, nil
}

// Response is a DetectVoice result. Confidence is the continuity signal;
// ClassificationConfidence belongs to the label.
type Response struct {
	Language                 string
	Prediction               string
	Confidence               float64
	ClassificationConfidence float64
	Scorer                   string
	RequestID                string
}

// Struct encodes r for the wire.
func (r Response) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldLanguage:                 structpb.NewStringValue(r.Language),
		FieldPrediction:               structpb.NewStringValue(r.Prediction),
		FieldConfidence:               structpb.NewNumberValue(r.Confidence),
		FieldClassificationConfidence: structpb.NewNumberValue(r.ClassificationConfidence),
		FieldScorer:                   structpb.NewStringValue(r.Scorer),
		FieldRequestID:                structpb.NewStringValue(r.RequestID),
	}}
}

// ParseResponse decodes a response document. Missing fields are zero.
func ParseResponse(in *structpb.Struct) Response {
	f := in.GetFields()
	return Response{
		Language:                 f[FieldLanguage].GetStringValue(),
		Prediction:               f[FieldPrediction].GetStringValue(),
		Confidence:               f[FieldConfidence].GetNumberValue(),
		ClassificationConfidence: f[FieldClassificationConfidence].GetNumberValue(),
		Scorer:                   f[FieldScorer].GetStringValue(),
		RequestID:                f[FieldRequestID].GetStringValue(),
	}
}
