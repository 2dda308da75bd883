// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Client is an interface to the storage holding the run results.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in the storage
	// engine.  Local storage has no buckets and ignores bucket.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to a single stored object.
type ObjectHandle interface {
	// NewReader returns a reader over the whole object.
	NewReader(ctx context.Context) (io.ReadCloser, error)
}

const gcsScheme = "gs://"

// Location is the root under which run directories are found.
type Location struct {
	// Bucket is empty for a local directory.
	Bucket string
	Prefix string
}

// ParseLocation parses a local directory or a gs://bucket/prefix URL.
func ParseLocation(base string) (Location, error) {
	if !strings.HasPrefix(base, gcsScheme) {
		if base == "" {
			base = "."
		}
		return Location{Prefix: filepath.Clean(base)}, nil
	}
	path := strings.TrimPrefix(base, gcsScheme)
	bucket, prefix, _ := strings.Cut(path, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("parsing %q: %w", base, errMissingBucket)
	}
	return Location{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// IsLocal reports whether the location is a local directory.
func (l Location) IsLocal() bool {
	return l.Bucket == ""
}

// Object returns the object name of the given path elements below the root.
func (l Location) Object(elem ...string) string {
	if l.IsLocal() {
		return filepath.Join(append([]string{l.Prefix}, elem...)...)
	}
	parts := elem
	if l.Prefix != "" {
		parts = append([]string{l.Prefix}, elem...)
	}
	return strings.Join(parts, "/")
}

func (l Location) String() string {
	if l.IsLocal() {
		return l.Prefix
	}
	return gcsScheme + l.Bucket + "/" + l.Prefix
}

// LocalClient is a Client reading from the local file system.
type LocalClient struct{}

// NewObjectHandle returns a handle to the file named object.
func (LocalClient) NewObjectHandle(_, object string) ObjectHandle {
	return localObjectHandle(object)
}

type localObjectHandle string

func (h localObjectHandle) NewReader(context.Context) (io.ReadCloser, error) {
	f, err := os.Open(string(h))
	if err != nil {
		return nil, newFileError(string(h), err)
	}
	return f, nil
}

func newFileError(name string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &storageError{ErrNotFound, name, err}
	case errors.Is(err, os.ErrPermission):
		return &storageError{ErrPermissionDenied, name, err}
	}
	return err
}
