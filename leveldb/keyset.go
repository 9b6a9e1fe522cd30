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

// Package leveldb provides a KeySet kept in a LevelDB database on disk, for
// dimensions with more keys than comfortably fit in memory.
package leveldb

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ datalake.KeySet = &KeySet{}

// KeySet is a datalake.KeySet backed by LevelDB.
type KeySet struct {
	lock    valueLocker
	db      *leveldb.DB
	dirname string
	remove  bool
}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// NewKeySet opens (or creates) the key set stored in dirname.
func NewKeySet(dirname string) (*KeySet, error) {
	err := os.MkdirAll(filepath.Dir(dirname), 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	ks := &KeySet{
		lock:    newBucketVLock(),
		dirname: dirname,
	}
	ks.db, err = leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	return ks, nil
}

// NewKeySetFunc returns a datalake.KeySetFunc opening an empty key set per
// table under dir. Anything left from a previous run is discarded, and each
// key set deletes its files when closed.
func NewKeySetFunc(dir string) datalake.KeySetFunc {
	return func(table string) (datalake.KeySet, error) {
		dirname := filepath.Join(dir, table+"-keys")
		if err := os.RemoveAll(dirname); err != nil {
			return nil, errors.Wrap(err, "clearing old key set")
		}
		ks, err := NewKeySet(dirname)
		if err != nil {
			return nil, err
		}
		ks.remove = true
		return ks, nil
	}
}

// Add implements datalake.KeySet.
func (ks *KeySet) Add(key []byte) (added bool, err error) {
	// if you're expecting most keys to be duplicates, this would be faster
	ok, err := ks.db.Has(key, &opt.ReadOptions{})
	if err != nil {
		return false, errors.Wrap(err, "trying to read key set")
	} else if ok {
		return false, nil
	}

	ks.lock.Lock(key)
	defer ks.lock.Unlock(key)
	// re-read after locking
	ok, err = ks.db.Has(key, &opt.ReadOptions{})
	if err != nil {
		return false, errors.Wrap(err, "trying to read key set")
	} else if ok {
		return false, nil
	}
	err = ks.db.Put(key, nil, &opt.WriteOptions{})
	if err != nil {
		return false, errors.Wrap(err, "putting key")
	}
	return true, nil
}

// Close implements datalake.KeySet.
func (ks *KeySet) Close() error {
	errs := make(errorList, 0)
	if err := ks.db.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "closing leveldb"))
	}
	if ks.remove {
		if err := os.RemoveAll(ks.dirname); err != nil {
			errs = append(errs, errors.Wrap(err, "removing key set"))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type valueLocker interface {
	Lock(val []byte)
	Unlock(val []byte)
}

type bucketVLock struct {
	ms []sync.Mutex
}

func newBucketVLock() bucketVLock {
	return bucketVLock{
		ms: make([]sync.Mutex, 1000),
	}
}

func (b bucketVLock) Lock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Lock()
}

func (b bucketVLock) Unlock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Unlock()
}
