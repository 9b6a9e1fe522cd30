// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package s3 reads input objects from, and writes tables to, Amazon S3 or any
// service speaking its API.
package s3

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
)

// NewSession gets an AWS session for region. Static credentials are used when
// accessKey or secretKey is set, otherwise the SDK's default chain
// (environment, shared config, instance role) applies. A non-empty endpoint
// replaces the S3 endpoint and switches to path style addressing, as needed by
// most S3 compatible stores.
func NewSession(region, accessKey, secretKey, endpoint string) (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(region),
	}
	if accessKey != "" || secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	return sess, errors.Wrap(err, "creating AWS session")
}

// NewClient gets an S3 client for sess.
func NewClient(sess *session.Session) s3iface.S3API {
	return s3.New(sess)
}

// RawSource hands out the objects under a prefix of a bucket in key order.
type RawSource struct {
	ctx    context.Context
	s3     s3iface.S3API
	bucket string
	prefix string
	suffix string

	objects []*s3.Object
	objIdx  *uint64
}

// RawSrcOption is a functional option for NewRawSource.
type RawSrcOption func(rs *RawSource)

// OptRawSrcSuffix limits the objects to those whose key ends in suffix.
func OptRawSrcSuffix(suffix string) RawSrcOption {
	return func(rs *RawSource) {
		rs.suffix = suffix
	}
}

// NewRawSource lists every object beneath prefix in bucket. Objects are
// fetched with ctx as they are handed out.
func NewRawSource(ctx context.Context, client s3iface.S3API, bucket, prefix string, opts ...RawSrcOption) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		ctx:    ctx,
		s3:     client,
		bucket: bucket,
		prefix: dirPrefix(prefix),
		objIdx: &idx,
	}
	for _, opt := range opts {
		opt(rs)
	}
	err := client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(rs.prefix),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") || !strings.HasSuffix(key, rs.suffix) {
				continue
			}
			rs.objects = append(rs.objects, obj)
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing s3://%s/%s", bucket, rs.prefix)
	}
	sort.Slice(rs.objects, func(i, j int) bool {
		return aws.StringValue(rs.objects[i].Key) < aws.StringValue(rs.objects[j].Key)
	})
	return rs, nil
}

// Keys returns the keys of the objects rs hands out.
func (rs *RawSource) Keys() []string {
	keys := make([]string, len(rs.objects))
	for i, obj := range rs.objects {
		keys[i] = aws.StringValue(obj.Key)
	}
	return keys
}

type objReader struct {
	name string
	body io.ReadCloser
	meta map[string]interface{}
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

func (o *objReader) Meta() map[string]interface{} {
	return o.meta
}

// NextReader implements datalake.RawSource.
func (rs *RawSource) NextReader() (datalake.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.objects) {
		return nil, io.EOF
	}
	obj := rs.objects[idx]

	result, err := rs.s3.GetObjectWithContext(rs.ctx, &s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    obj.Key,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", aws.StringValue(obj.Key))
	}
	return &objReader{
		name: aws.StringValue(obj.Key),
		body: result.Body,
		meta: map[string]interface{}{
			"size":          aws.Int64Value(obj.Size),
			"last_modified": aws.TimeValue(obj.LastModified),
			"etag":          aws.StringValue(obj.ETag),
		},
	}, nil
}

// dirPrefix makes a non-empty prefix end in a slash so that "song_data" does
// not also match "song_data_old".
func dirPrefix(prefix string) string {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}
