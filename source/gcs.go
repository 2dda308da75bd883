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
	"net/http"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewObjectHandle returns a handle to a specified object in the storage
// engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object), bucket + "/" + object}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
	name string
}

func (h gcsObjectHandle) NewReader(ctx context.Context) (io.ReadCloser, error) {
	r, err := h.ObjectHandle.NewReader(ctx)
	if err != nil {
		return nil, newStorageError(h.name, err)
	}
	return r, nil
}

var (
	defaultStorageClient           *storage.Client
	defaultStorageClientErr        error
	initializeDefaultStorageClient sync.Once
)

// NewDefaultClient returns a storage client that uses the application default
// credentials.  It caches the storage client for efficiency.
func NewDefaultClient(ctx context.Context) (Client, error) {
	initializeDefaultStorageClient.Do(func() {
		defaultStorageClient, defaultStorageClientErr = storage.NewClient(ctx)
	})
	if defaultStorageClientErr != nil {
		return nil, fmt.Errorf("creating default storage client: %w", defaultStorageClientErr)
	}
	return GCSClient{defaultStorageClient}, nil
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects.
func NewPublicClient(ctx context.Context) (Client, error) {
	gcs, err := storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("creating public storage client: %w", err)
	}
	return GCSClient{gcs}, nil
}

// NewClient returns the client able to read loc.  Local locations need no
// credentials; bucket locations use the default client, or the public client
// when public is set.
func NewClient(ctx context.Context, loc Location, public bool) (Client, error) {
	switch {
	case loc.IsLocal():
		return LocalClient{}, nil
	case public:
		return NewPublicClient(ctx)
	default:
		return NewDefaultClient(ctx)
	}
}

func newStorageError(context string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return &storageError{ErrNotFound, context, err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return &storageError{ErrNotFound, context, err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &storageError{ErrPermissionDenied, context, err}
		}
	}
	return err
}
