package attachment

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxBytes is the size ceiling applied to photos and audio.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrTooLarge          = errors.New("attachment too large")
)

// Policy lists what a record accepts as photo or audio.
type Policy struct {
	MaxBytes   int64
	PhotoTypes []string
	AudioTypes []string
}

// DefaultPolicy accepts png/jpg photos and mp3/amr audio up to 10 MB.
func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:   DefaultMaxBytes,
		PhotoTypes: []string{"image/png", "image/jpeg", "image/jpg"},
		AudioTypes: []string{"audio/mpeg", "audio/mp3", "audio/amr"},
	}
}

// ValidationError reports one attachment that cannot be saved.
type ValidationError struct {
	Name        string
	ContentType string
	Size        int64
	Reason      error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Reason, ErrTooLarge) {
		return fmt.Sprintf("%s: %v (%d bytes)", e.Name, e.Reason, e.Size)
	}
	return fmt.Sprintf("%s: %v (%s)", e.Name, e.Reason, e.ContentType)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// ValidationErrors aggregates every invalid attachment of a record.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return "invalid attachments: " + strings.Join(msgs, "; ")
}

func (es ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(es))
	for _, e := range es {
		out = append(out, e)
	}
	return out
}

// ValidatePhoto checks a photo attachment against the policy.
func (p Policy) ValidatePhoto(a *Attachment) *ValidationError {
	return p.validate(a, p.PhotoTypes)
}

// ValidateAudio checks an audio attachment against the policy.
func (p Policy) ValidateAudio(a *Attachment) *ValidationError {
	return p.validate(a, p.AudioTypes)
}

func (p Policy) validate(a *Attachment, allowed []string) *ValidationError {
	if !contains(allowed, a.ContentType) {
		return &ValidationError{Name: a.Name, ContentType: a.ContentType, Size: a.Size, Reason: ErrUnsupportedFormat}
	}
	max := p.MaxBytes
	if max <= 0 {
		max = DefaultMaxBytes
	}
	if a.Size > max {
		return &ValidationError{Name: a.Name, ContentType: a.ContentType, Size: a.Size, Reason: ErrTooLarge}
	}
	return nil
}

func contains(list []string, ct string) bool {
	ct = NormalizeContentType(ct)
	for _, v := range list {
		if NormalizeContentType(v) == ct {
			return true
		}
	}
	return false
}
