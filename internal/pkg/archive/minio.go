package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FileName is the object name of an archived transcript inside episode dir
const FileName = "transcript.txt"

type putter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Options for minio connection
type Options struct {
	URL    string
	User   string
	Key    string
	Bucket string
	HTTPS  bool
}

// Archive saves transcripts to object storage
type Archive struct {
	client putter
	bucket string
}

// New creates archive, makes bucket if missing
func New(ctx context.Context, opts Options) (*Archive, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("no archive URL")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("no archive bucket")
	}
	client, err := minio.New(opts.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Key, ""),
		Secure: opts.HTTPS,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("can't check bucket: %w", err)
	}
	if !exists {
		goapp.Log.Info().Str("bucket", opts.Bucket).Msg("creating bucket")
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("can't create bucket: %w", err)
		}
	}
	goapp.Log.Info().Str("url", opts.URL).Str("bucket", opts.Bucket).Msg("archive")
	return &Archive{client: client, bucket: opts.Bucket}, nil
}

// Save writes <episodeID>/transcript.txt
func (a *Archive) Save(ctx context.Context, episodeID, text string) error {
	if strings.TrimSpace(episodeID) == "" {
		return fmt.Errorf("no episode ID")
	}
	name := path.Join(episodeID, FileName)
	_, err := a.client.PutObject(ctx, a.bucket, name, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("can't save %s: %w", name, err)
	}
	goapp.Log.Debug().Str("component", "archive").Str("ID", episodeID).Msg("saved")
	return nil
}
