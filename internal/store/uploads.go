package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Upload identifies one uploaded slide archive.
type Upload struct {
	ID          string
	ArchiveName string
}

// UploadStore keeps uploaded archives where every server instance can reach
// them, so a process request may land on a different instance than the
// upload that preceded it.
//
// OpenUpload and LatestUpload return ErrNotFound (possibly wrapped) when
// nothing matching exists.
type UploadStore interface {
	SaveUpload(ctx context.Context, up Upload, archive io.Reader) error
	OpenUpload(ctx context.Context, id string) (Upload, io.ReadCloser, error)
	// LatestUpload returns the ID of the most recently saved upload.
	LatestUpload(ctx context.Context) (string, error)
}

const (
	uploadsDir        = "uploads"
	latestUploadKey   = "latest"
	archiveNameHeader = "archive-name"
)

// S3UploadStore keeps each archive as <prefix>/uploads/<id>.zip, with the
// original file name in object metadata, and the most recent ID in
// <prefix>/uploads/latest.
type S3UploadStore struct {
	objects *S3Store
}

// NewS3UploadStore returns an S3UploadStore. prefix may be empty.
func NewS3UploadStore(client objectAPI, bucket, prefix string) *S3UploadStore {
	return &S3UploadStore{objects: NewS3Store(client, bucket, prefix)}
}

func uploadKey(id string) string {
	return uploadsDir + "/" + id + ".zip"
}

// SaveUpload stores the archive and then marks it as the latest upload.
func (s *S3UploadStore) SaveUpload(ctx context.Context, up Upload, archive io.Reader) error {
	o := s.objects
	key := o.key(uploadKey(up.ID))
	contentType := "application/zip"
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &o.bucket,
		Key:         &key,
		Body:        archive,
		ContentType: &contentType,
		Metadata:    map[string]string{archiveNameHeader: up.ArchiveName},
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject: %w", err)
	}

	if err := o.Write(ctx, uploadsDir+"/"+latestUploadKey, up.ID); err != nil {
		return fmt.Errorf("record latest upload: %w", err)
	}

	log.Info().Str("bucket", o.bucket).Str("key", key).Str("upload_id", up.ID).Msg("Uploaded archive saved to S3")
	return nil
}

// OpenUpload streams the archive back. The caller closes the reader.
func (s *S3UploadStore) OpenUpload(ctx context.Context, id string) (Upload, io.ReadCloser, error) {
	o := s.objects
	name := uploadKey(id)
	key := o.key(name)
	result, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &o.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return Upload{}, nil, fmt.Errorf("%s: %w", o.Location(name), ErrNotFound)
		}
		return Upload{}, nil, fmt.Errorf("S3 GetObject: %w", err)
	}

	up := Upload{ID: id, ArchiveName: result.Metadata[archiveNameHeader]}
	if up.ArchiveName == "" {
		up.ArchiveName = id + ".zip"
	}
	return up, result.Body, nil
}

// LatestUpload reads the pointer written by SaveUpload.
func (s *S3UploadStore) LatestUpload(ctx context.Context) (string, error) {
	id, err := s.objects.Read(ctx, uploadsDir+"/"+latestUploadKey)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}
