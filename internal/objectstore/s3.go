/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/launix-de/zeppelin/internal/zerr"
)

// S3Config describes how to reach an S3 or S3-compatible (MinIO, R2, ...)
// bucket.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string // custom endpoint for S3-compatible storage
	Bucket          string
	ForcePathStyle  bool
}

// S3Store is the primary Store backend: every key maps 1:1 to an S3 object
// key, with no local prefix bookkeeping beyond the bucket itself.
type S3Store struct {
	cfg S3Config

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func NewS3Store(cfg S3Config) *S3Store {
	return &S3Store{cfg: cfg}
}

func (s *S3Store) ensureOpen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}

	var opts []func(*config.LoadOptions) error
	if s.cfg.Region != "" {
		opts = append(opts, config.WithRegion(s.cfg.Region))
	}
	if s.cfg.AccessKeyID != "" && s.cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return zerr.Storage(fmt.Errorf("loading AWS config: %w", err))
	}

	var s3Opts []func(*s3.Options)
	if s.cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		})
	}
	if s.cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	s.client = s3.NewFromConfig(awsCfg, s3Opts...)
	s.opened = true
	return nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return zerr.Storage(err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, zerr.NotFound(key)
		}
		return nil, zerr.Storage(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.Storage(err)
	}
	return data, nil
}

func (s *S3Store) Head(ctx context.Context, key string) (int64, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return 0, err
	}
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, zerr.NotFound(key)
		}
		return 0, zerr.Storage(err)
	}
	if resp.ContentLength == nil {
		return 0, nil
	}
	return *resp.ContentLength, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if zerr.Is(err, zerr.KindNotFound) {
		return false, nil
	}
	return false, err
}

func (s *S3Store) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, zerr.Storage(err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return zerr.Storage(err)
	}
	return nil
}

func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func isNotFound(err error) bool {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}
	return false
}
