// Package boltdb provides a KeySet kept in a BoltDB file.
package boltdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
)

var _ datalake.KeySet = &KeySet{}

var keyBucket = []byte("keys")

// KeySet is a datalake.KeySet backed by a single bolt bucket.
type KeySet struct {
	Db     *bolt.DB
	remove bool
}

// NewKeySet opens (or creates) the key set stored in filename.
func NewKeySet(filename string) (ks *KeySet, err error) {
	if err = os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	ks = &KeySet{}
	ks.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	err = ks.Db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(keyBucket)
		return errors.Wrap(err, "creating keys bucket")
	})
	if err != nil {
		ks.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return ks, nil
}

// NewKeySetFunc returns a datalake.KeySetFunc opening an empty key set per
// table in dir. Each key set deletes its file when closed.
func NewKeySetFunc(dir string) datalake.KeySetFunc {
	return func(table string) (datalake.KeySet, error) {
		filename := filepath.Join(dir, table+"-keys.bolt")
		if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "clearing old key set")
		}
		ks, err := NewKeySet(filename)
		if err != nil {
			return nil, err
		}
		ks.remove = true
		return ks, nil
	}
}

// Add implements datalake.KeySet.
func (ks *KeySet) Add(key []byte) (added bool, err error) {
	// look first with a read transaction, most keys are expected to repeat
	err = ks.Db.View(func(tx *bolt.Tx) error {
		added = tx.Bucket(keyBucket).Get(key) == nil
		return nil
	})
	if err != nil || !added {
		return false, errors.Wrap(err, "reading key")
	}
	err = ks.Db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(keyBucket)
		if b.Get(key) != nil {
			added = false
			return nil
		}
		return errors.Wrap(b.Put(key, []byte{}), "inserting key")
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Close implements datalake.KeySet.
func (ks *KeySet) Close() error {
	path := ks.Db.Path()
	if err := ks.Db.Close(); err != nil {
		return errors.Wrap(err, "closing db")
	}
	if ks.remove {
		return errors.Wrap(os.Remove(path), "removing key set")
	}
	return nil
}
