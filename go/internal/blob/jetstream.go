package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// DefaultBucket is the object store bucket for logos.
const DefaultBucket = "logos"

// ObjectStore keeps blobs in a JetStream object store bucket.
type ObjectStore struct {
	bucket jetstream.ObjectStore
}

// NewObjectStore opens bucket, creating it if needed.
func NewObjectStore(ctx context.Context, js jetstream.JetStream, bucket string) (*ObjectStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	objects, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "uploaded team, league and channel logos",
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open object store %s", bucket)
	}
	log.Info().Str("bucket", bucket).Msg("logo object store ready")
	return &ObjectStore{bucket: objects}, nil
}

func (s *ObjectStore) Upload(ctx context.Context, filename string, data []byte) (Ref, error) {
	name, contentType, err := prepare(filename, data)
	if err != nil {
		return Ref{}, err
	}

	info, err := s.bucket.Put(ctx, jetstream.ObjectMeta{
		Name:    name,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}, bytes.NewReader(data))
	if err != nil {
		return Ref{}, errors.Mark(errors.Wrapf(err, "put %s", name), ErrUploadFailed)
	}
	return toRef(info), nil
}

func (s *ObjectStore) List(ctx context.Context) ([]Ref, error) {
	infos, err := s.bucket.List(ctx)
	if errors.Is(err, jetstream.ErrNoObjectsFound) {
		return []Ref{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}
	out := make([]Ref, 0, len(infos))
	for _, info := range infos {
		if info.Deleted {
			continue
		}
		out = append(out, toRef(info))
	}
	return out, nil
}

func (s *ObjectStore) Open(ctx context.Context, name string) (io.ReadCloser, Ref, error) {
	if !validName(name) {
		return nil, Ref{}, ErrNotFound
	}
	obj, err := s.bucket.Get(ctx, name)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, Ref{}, ErrNotFound
	}
	if err != nil {
		return nil, Ref{}, errors.Wrapf(err, "get %s", name)
	}
	info, err := obj.Info()
	if err != nil {
		obj.Close()
		return nil, Ref{}, errors.Wrapf(err, "info %s", name)
	}
	return obj, toRef(info), nil
}

func toRef(info *jetstream.ObjectInfo) Ref {
	ref := Ref{
		Name:    info.Name,
		Size:    int64(info.Size),
		ModTime: info.ModTime,
	}
	if info.Headers != nil {
		ref.ContentType = info.Headers.Get("Content-Type")
	}
	return ref
}
