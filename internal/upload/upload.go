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

// Package upload copies finished report files to Google Cloud Storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// Uploader writes report files into a GCS bucket.  Must be created with
// NewDefaultUploader or NewUploaderFromToken.
type Uploader struct {
	client *storage.Client
	bucket string
}

// NewDefaultUploader returns an Uploader that authenticates with the
// application default credentials.
func NewDefaultUploader(ctx context.Context, bucket string) (*Uploader, error) {
	return newUploader(ctx, bucket)
}

// NewUploaderFromToken returns an Uploader that authenticates every request
// with the provided OAuth2 bearer token.
func NewUploaderFromToken(ctx context.Context, bucket, token string) (*Uploader, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: token,
	})
	return newUploader(ctx, bucket, option.WithTokenSource(source))
}

func newUploader(ctx context.Context, bucket string, opts ...option.ClientOption) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no bucket specified")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %v", err)
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

// Upload copies the file at path into the bucket under reports/<basename>.
// It returns the object name written.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening report: %v", err)
	}
	defer f.Close()

	object := "reports/" + filepath.Base(path)
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("writing object %s: %v", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing object %s: %v", object, err)
	}
	return object, nil
}

// Close releases the underlying storage client.
func (u *Uploader) Close() error {
	return u.client.Close()
}
