package attachment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// TimestampLayout is the suffix layout used when naming attachments, e.g. audio-2010-02-20T120432.
const TimestampLayout = "2006-01-02T150405"

// Clock supplies the current time for attachment naming and history timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T. Tests move T forward between saves.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Upload is anything a client can hand over as a file: a multipart part, raw bytes in tests, etc.
type Upload interface {
	OriginalFilename() string
	ContentType() string
	Read() ([]byte, error)
}

// FileReader reads raw files from disk for direct ingestion.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileReader reads files with os.ReadFile.
type OSFileReader struct{}

func (OSFileReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Attachment is a named binary payload held by a record.
// Data is nil for attachments loaded from a persisted document until their bytes are fetched.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Digest      string
	// ParentKey names the photo this attachment was derived from (resized variants).
	ParentKey string
	Data      []byte
	// Pending is true until the bytes have been written to object storage.
	Pending bool
}

// New wraps data under an explicit name.
func New(name, contentType string, data []byte) *Attachment {
	return &Attachment{
		Name:        name,
		ContentType: NormalizeContentType(contentType),
		Size:        int64(len(data)),
		Digest:      Digest(data),
		Data:        data,
		Pending:     true,
	}
}

// FromUpload reads the upload and names it "<prefix>-<timestamp>".
// A missing or generic content type is replaced by one sniffed from the bytes.
func FromUpload(clock Clock, up Upload, prefix string) (*Attachment, error) {
	data, err := up.Read()
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", up.OriginalFilename(), err)
	}
	ct := NormalizeContentType(up.ContentType())
	if ct == "" || ct == "application/octet-stream" {
		ct = NormalizeContentType(mimetype.Detect(data).String())
	}
	return New(Name(prefix, clock.Now()), ct, data), nil
}

// FromFile reads path through files and names it "<prefix>-<timestamp>".
// The declared content type is trusted as is.
func FromFile(clock Clock, files FileReader, path, declaredMime, prefix string) (*Attachment, error) {
	data, err := files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return New(Name(prefix, clock.Now()), declaredMime, data), nil
}

// Name builds "<prefix>-<timestamp>".
func Name(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format(TimestampLayout)
}

// DerivativeName builds "<parent>_<suffix>", e.g. photo-ab12cd34-2010-01-20T171032_160x160.
func DerivativeName(parent, suffix string) string {
	return parent + "_" + suffix
}

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeContentType lowercases and drops parameters ("text/plain; charset=utf-8" -> "text/plain").
func NormalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// Alias derives the short variant key for a content type: audio/mpeg -> mp3, audio/amr -> amr.
func Alias(contentType string) string {
	ct := NormalizeContentType(contentType)
	if m := mimetype.Lookup(ct); m != nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), ".")
	}
	_, sub, ok := strings.Cut(ct, "/")
	if !ok {
		return ct
	}
	return strings.TrimPrefix(sub, "x-")
}

// BytesUpload is an in-memory Upload.
type BytesUpload struct {
	Filename string
	Type     string
	Data     []byte
}

func (u BytesUpload) OriginalFilename() string { return u.Filename }
func (u BytesUpload) ContentType() string      { return u.Type }
func (u BytesUpload) Read() ([]byte, error)    { return u.Data, nil }

// FileHeaderUpload adapts a multipart file header.
type FileHeaderUpload struct {
	Header *multipart.FileHeader
}

func (u FileHeaderUpload) OriginalFilename() string { return u.Header.Filename }
func (u FileHeaderUpload) ContentType() string      { return u.Header.Header.Get("Content-Type") }

func (u FileHeaderUpload) Read() ([]byte, error) {
	f, err := u.Header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
