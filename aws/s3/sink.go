package s3

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
)

// maxDeleteKeys is the most keys a single DeleteObjects call accepts.
const maxDeleteKeys = 1000

// Sink writes objects beneath a prefix of a bucket. Objects are streamed to
// S3 with a multipart upload while they are written.
type Sink struct {
	s3       s3iface.S3API
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

// NewSink gets a Sink using client for listing and deleting, and uploader for
// writing.
func NewSink(client s3iface.S3API, uploader s3manageriface.UploaderAPI, bucket, prefix string) *Sink {
	return &Sink{
		s3:       client,
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// NewSinkFromSession gets a Sink with a client and uploader built from sess.
func NewSinkFromSession(sess *session.Session, bucket, prefix string) *Sink {
	return NewSink(NewClient(sess), s3manager.NewUploader(sess), bucket, prefix)
}

func (s *Sink) key(key string) string {
	k := path.Join(s.prefix, key)
	if strings.HasSuffix(key, "/") {
		k += "/"
	}
	return strings.TrimPrefix(k, "/")
}

// Create implements datalake.Sink. The object exists once Close returns nil.
func (s *Sink) Create(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	w := &uploadWriter{pw: pw, done: make(chan error, 1)}
	fullKey := s.key(key)
	go func() {
		_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(fullKey),
			Body:   pr,
		})
		err = errors.Wrapf(err, "uploading s3://%s/%s", s.bucket, fullKey)
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

type uploadWriter struct {
	pw     *io.PipeWriter
	done   chan error
	closed bool
	err    error
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *uploadWriter) Close() error {
	if !w.closed {
		w.closed = true
		w.pw.Close()
		w.err = <-w.done
	}
	return w.err
}

// Abort fails the upload's read of the body with err, so the object is never
// completed, and waits for the uploader to give up.
func (w *uploadWriter) Abort(err error) error {
	if err == nil {
		err = errors.New("upload aborted")
	}
	if !w.closed {
		w.closed = true
		w.pw.CloseWithError(err)
		<-w.done
		w.err = err
	}
	return nil
}

// RemoveAll implements datalake.Sink, deleting in batches of up to 1000 keys.
func (s *Sink) RemoveAll(ctx context.Context, prefix string) error {
	full := s.key(prefix)
	keys := make([]*s3.ObjectIdentifier, 0)
	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(full),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, &s3.ObjectIdentifier{Key: obj.Key})
		}
		return true
	})
	if err != nil {
		return errors.Wrapf(err, "listing s3://%s/%s", s.bucket, full)
	}
	for len(keys) > 0 {
		n := len(keys)
		if n > maxDeleteKeys {
			n = maxDeleteKeys
		}
		out, err := s.s3.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{Objects: keys[:n], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return errors.Wrapf(err, "deleting under s3://%s/%s", s.bucket, full)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return errors.Errorf("deleting %s: %s: %s (and %d more)",
				aws.StringValue(e.Key), aws.StringValue(e.Code), aws.StringValue(e.Message), len(out.Errors)-1)
		}
		keys = keys[n:]
	}
	return nil
}
