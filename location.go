package datalake

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Storage schemes a Location can have.
const (
	SchemeS3   = "s3"
	SchemeFile = "file"
)

// Location is a parsed input or output path. For S3, Bucket is the bucket and
// Prefix the key prefix without leading slash. For local files, Prefix is the
// directory.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation parses an s3://, s3a://, file:// URL or a bare local path.
func ParseLocation(loc string) (Location, error) {
	if loc == "" {
		return Location{}, errors.New("empty location")
	}
	if !strings.Contains(loc, "://") {
		return Location{Scheme: SchemeFile, Prefix: filepath.Clean(loc)}, nil
	}
	u, err := url.Parse(loc)
	if err != nil {
		return Location{}, errors.Wrapf(err, "parsing location '%s'", loc)
	}
	switch strings.ToLower(u.Scheme) {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, errors.Errorf("location '%s' has no bucket", loc)
		}
		return Location{
			Scheme: SchemeS3,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}, nil
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return Location{}, errors.Errorf("location '%s' has a host; use file:///dir for an absolute path or a bare relative path", loc)
		}
		if u.Path == "" {
			return Location{}, errors.Errorf("location '%s' has no path", loc)
		}
		return Location{Scheme: SchemeFile, Prefix: filepath.Clean(u.Path)}, nil
	default:
		return Location{}, errors.Errorf("unsupported scheme '%s' in location '%s'", u.Scheme, loc)
	}
}

// Join returns the location of elem beneath l.
func (l Location) Join(elem string) Location {
	if l.Scheme == SchemeFile {
		l.Prefix = filepath.Join(l.Prefix, filepath.FromSlash(elem))
		return l
	}
	l.Prefix = strings.Trim(path.Join(l.Prefix, elem), "/")
	return l
}

// String renders l as a URL, or as a plain path for local files.
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Prefix
	}
	if l.Prefix == "" {
		return l.Scheme + "://" + l.Bucket
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Prefix
}
