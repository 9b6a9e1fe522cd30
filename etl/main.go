// Package etl wires the storage back-ends, key stores and stats collectors
// together around the datalake pipeline, as configured from the command line.
package etl

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
	"github.com/sparkify/datalake/aws/s3"
	"github.com/sparkify/datalake/boltdb"
	"github.com/sparkify/datalake/file"
	"github.com/sparkify/datalake/json"
	"github.com/sparkify/datalake/leveldb"
	"github.com/sparkify/datalake/prompush"
	"github.com/sparkify/datalake/termstat"
	"go.uber.org/zap"
)

// Key stores for dimension dedup.
const (
	KeyStoreMemory  = "memory"
	KeyStoreLevelDB = "leveldb"
	KeyStoreBolt    = "bolt"
)

// Main holds the configuration of a run.
type Main struct {
	InputPath        string `help:"Where song_data and log_data are read from: s3://bucket/prefix, s3a://bucket/prefix, file:///dir or a local path." validate:"required"`
	OutputPath       string `help:"Where the tables are written, in the same forms as input-path." validate:"required"`
	AccessKey        string `help:"AWS access key id. Leave empty to use the default credential chain."`
	SecretKey        string `help:"AWS secret access key."`
	Region           string `help:"AWS region." validate:"required"`
	Endpoint         string `help:"S3 endpoint to use instead of AWS, e.g. a MinIO server." validate:"omitempty,url"`
	SongPrefix       string `help:"Prefix of the song catalog beneath input-path." validate:"required"`
	LogPrefix        string `help:"Prefix of the event log beneath input-path." validate:"required"`
	ReadConcurrency  int    `help:"Number of input objects fetched and decoded at once." validate:"min=1,max=256"`
	RowsPerFile      int    `help:"Maximum number of rows in a single parquet file." validate:"min=1"`
	Compression      string `help:"Parquet compression: snappy, gzip, zstd or none." validate:"oneof=snappy gzip zstd none"`
	KeyStore         string `help:"Where dimension keys are deduplicated: memory, leveldb or bolt." validate:"oneof=memory leveldb bolt"`
	KeyStoreDir      string `help:"Scratch directory for the leveldb and bolt key stores. Defaults to the system temp directory."`
	GeohashPrecision uint   `help:"Length of the artist geohash column. 0 leaves it empty." validate:"max=12"`
	PushGateway      string `help:"Prometheus Pushgateway URL to push run metrics to at the end of the run." validate:"omitempty,url"`
	Stats            bool   `help:"Print a summary of the run's stats to stdout at the end."`
	LogLevel         string `help:"Log level: debug, info, warn or error." validate:"oneof=debug info warn error"`
	LogFormat        string `help:"Log format: json or console." validate:"oneof=json console"`

	stdout io.Writer
	stderr io.Writer
	sess   *session.Session
}

// NewMain gets a Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Region:           "us-west-2",
		SongPrefix:       "song_data",
		LogPrefix:        "log_data",
		ReadConcurrency:  4,
		RowsPerFile:      1000000,
		Compression:      "snappy",
		KeyStore:         KeyStoreMemory,
		GeohashPrecision: 6,
		LogLevel:         "info",
		LogFormat:        "json",

		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetOutput sets where stats summaries and logs are written.
func (m *Main) SetOutput(stdout, stderr io.Writer) {
	m.stdout, m.stderr = stdout, stderr
}

// Validate checks the configuration.
func (m *Main) Validate() error {
	err := validator.New().Struct(m)
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return errors.Errorf("invalid %s: failed '%s' check with value '%v'", fe.Field(), fe.Tag(), fe.Value())
	}
	return errors.Wrap(err, "validating configuration")
}

// Run runs the pipeline once.
func (m *Main) Run() error {
	return m.RunContext(context.Background())
}

// RunContext runs the pipeline once, aborting if ctx is canceled.
func (m *Main) RunContext(ctx context.Context) error {
	if err := m.Validate(); err != nil {
		return err
	}
	log, err := NewLogger(m.LogLevel, m.LogFormat, m.stderr)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer func() { _ = log.Sync() }()

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	in, err := datalake.ParseLocation(m.InputPath)
	if err != nil {
		return errors.Wrap(err, "parsing input path")
	}
	out, err := datalake.ParseLocation(m.OutputPath)
	if err != nil {
		return errors.Wrap(err, "parsing output path")
	}
	log.Info("starting run", zap.Stringer("input", in), zap.Stringer("output", out))

	songs, err := m.source(ctx, in.Join(m.SongPrefix))
	if err != nil {
		return errors.Wrap(err, "opening song catalog")
	}
	events, err := m.source(ctx, in.Join(m.LogPrefix))
	if err != nil {
		return errors.Wrap(err, "opening event log")
	}
	sink, err := m.sink(out)
	if err != nil {
		return errors.Wrap(err, "opening output")
	}

	keySets, cleanup, err := m.keySets()
	if err != nil {
		return errors.Wrap(err, "setting up key store")
	}
	defer cleanup()

	stats := datalake.MultiStatter{}
	var term *termstat.Collector
	if m.Stats {
		term = termstat.NewCollector(m.stdout)
		stats = append(stats, term)
	}
	var pusher *prompush.Statter
	if m.PushGateway != "" {
		pusher, err = prompush.NewStatter(m.PushGateway, "datalake", prompush.OptGrouping("run_id", runID))
		if err != nil {
			return errors.Wrap(err, "setting up metrics push")
		}
		stats = append(stats, pusher)
	}

	p := datalake.NewPipeline(songs, events, sink,
		datalake.OptPipelineLogger(log),
		datalake.OptPipelineStatter(stats),
		datalake.OptPipelineKeySets(keySets),
		datalake.OptPipelineGeohashPrecision(m.GeohashPrecision),
		datalake.OptPipelineWriteOptions(datalake.WriteOptions{
			RowsPerFile: m.RowsPerFile,
			Compression: m.Compression,
			RunID:       runID,
		}),
	)
	res, err := p.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "running pipeline")
	}
	for _, ts := range res.Tables {
		log.Info("table written",
			zap.String("table", ts.Table),
			zap.Int("rows", ts.Rows),
			zap.Int("files", ts.Files),
			zap.Stringer("bytes", ts.Bytes))
	}

	if term != nil {
		if err := term.Write(); err != nil {
			log.Warn("writing stats summary", zap.Error(err))
		}
	}
	if pusher != nil {
		if err := pusher.Push(ctx); err != nil {
			log.Warn("pushing metrics", zap.Error(err))
		}
	}
	return nil
}

func (m *Main) session() (*session.Session, error) {
	if m.sess != nil {
		return m.sess, nil
	}
	sess, err := s3.NewSession(m.Region, m.AccessKey, m.SecretKey, m.Endpoint)
	if err != nil {
		return nil, err
	}
	m.sess = sess
	return sess, nil
}

// source opens a record source over every JSON object at loc. An empty
// location is an error.
func (m *Main) source(ctx context.Context, loc datalake.Location) (datalake.Source, error) {
	var rs datalake.RawSource
	var n int
	switch loc.Scheme {
	case datalake.SchemeS3:
		sess, err := m.session()
		if err != nil {
			return nil, err
		}
		srs, err := s3.NewRawSource(ctx, s3.NewClient(sess), loc.Bucket, loc.Prefix, s3.OptRawSrcSuffix(".json"))
		if err != nil {
			return nil, err
		}
		rs, n = srs, len(srs.Keys())
	default:
		frs, err := file.NewRawSource(loc.Prefix, file.OptRawSrcSuffix(".json"))
		if err != nil {
			return nil, err
		}
		rs, n = frs, len(frs.Files())
	}
	if n == 0 {
		return nil, errors.Errorf("no JSON objects found at %s", loc)
	}
	return json.NewSourceFromRawSource(rs, json.OptConcurrency(m.ReadConcurrency)), nil
}

func (m *Main) sink(loc datalake.Location) (datalake.Sink, error) {
	if loc.Scheme == datalake.SchemeS3 {
		sess, err := m.session()
		if err != nil {
			return nil, err
		}
		return s3.NewSinkFromSession(sess, loc.Bucket, loc.Prefix), nil
	}
	return file.NewSink(loc.Prefix)
}

// keySets returns the KeySetFunc for the configured key store and a func
// removing its scratch directory.
func (m *Main) keySets() (datalake.KeySetFunc, func(), error) {
	if m.KeyStore == KeyStoreMemory {
		return datalake.NewMapKeySetFunc, func() {}, nil
	}
	dir, err := os.MkdirTemp(m.KeyStoreDir, "datalake-keys-")
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating key store directory")
	}
	cleanup := func() { os.RemoveAll(dir) }
	switch m.KeyStore {
	case KeyStoreLevelDB:
		return leveldb.NewKeySetFunc(dir), cleanup, nil
	case KeyStoreBolt:
		return boltdb.NewKeySetFunc(dir), cleanup, nil
	}
	cleanup()
	return nil, nil, errors.Errorf("unknown key store '%s'", m.KeyStore)
}
