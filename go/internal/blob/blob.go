// Package blob stores uploaded logo images and serves them under stable
// public URLs.
package blob

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUploadFailed    = errors.New("upload failed")
	ErrNotFound        = errors.New("blob not found")
	ErrUnsupportedType = errors.New("unsupported content type")
)

// MaxUploadSize caps a single logo upload.
const MaxUploadSize = 5 << 20

// Ref identifies a stored blob.
type Ref struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ModTime     time.Time `json:"mod_time"`
}

// Store is the logo bucket.
type Store interface {
	// Upload stores data under a fresh <uuid>.<ext> name; the extension is
	// taken from filename. It fails with ErrUploadFailed.
	Upload(ctx context.Context, filename string, data []byte) (Ref, error)
	List(ctx context.Context) ([]Ref, error)
	Open(ctx context.Context, name string) (io.ReadCloser, Ref, error)
}

// PublicURL is where a stored blob is served.
func PublicURL(baseURL string, ref Ref) string {
	return strings.TrimRight(baseURL, "/") + "/logos/" + ref.Name
}

// prepare sniffs data and picks the stored name and content type. Only
// images are accepted.
func prepare(filename string, data []byte) (name, contentType string, err error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") && !mt.Is("image/svg+xml") {
		return "", "", errors.Mark(errors.Newf("%s is not an image", mt.String()), ErrUnsupportedType)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = strings.TrimPrefix(mt.Extension(), ".")
	}
	name = uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return name, mt.String(), nil
}

// validName rejects names that could escape the bucket.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\\") && name != "." && name != ".."
}
