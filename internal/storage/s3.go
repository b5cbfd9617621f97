// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible blob store for uploaded
// media. It wraps the AWS SDK v2 and is configured for path-style access.
// Files are addressed by bucket and file id and exposed through view URLs
// the API server answers itself.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned by Open for missing files.
var ErrNotFound = errors.New("file not found")

// Options configures a Client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL is the base of generated view URLs, normally the API
	// server's own address. Defaults to Endpoint.
	PublicURL string
	ProjectID string
}

// Client wraps an S3 client for media operations.
type Client struct {
	s3        *s3.Client
	publicURL string
	projectID string
}

// Object is an open file body with its metadata.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, nil
	}
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse s3 endpoint: %w", err)
	}

	s3Client := s3.New(s3.Options{
		Region:       opts.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	})

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = endpoint
	}

	return &Client{s3: s3Client, publicURL: publicURL, projectID: opts.ProjectID}, nil
}

// Upload stores a file under fileID in bucket.
func (c *Client) Upload(ctx context.Context, bucket, fileID, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(fileID),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", bucket, fileID, err)
	}
	return nil
}

// Open returns the body of a stored file. The caller must close it.
func (c *Client) Open(ctx context.Context, bucket, fileID string) (*Object, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 download %s/%s: %w", bucket, fileID, err)
	}
	return &Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// Delete removes a file from bucket.
func (c *Client) Delete(ctx context.Context, bucket, fileID string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", bucket, fileID, err)
	}
	return nil
}

// FileURL returns the view URL of a file:
// {base}/storage/buckets/{bucket}/files/{fileId}/view?project={projectId}
func (c *Client) FileURL(bucket, fileID string) string {
	return ViewURL(c.publicURL, bucket, fileID, c.projectID)
}

// ProjectID returns the project the view URLs are issued for.
func (c *Client) ProjectID() string {
	return c.projectID
}

// ViewURL builds a file view URL from its parts.
func ViewURL(base, bucket, fileID, projectID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		strings.TrimRight(base, "/"),
		url.PathEscape(bucket),
		url.PathEscape(fileID),
		url.QueryEscape(projectID),
	)
}
