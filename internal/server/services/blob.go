package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/logging"
	sc "github.com/dpetrovs/localsync/internal/server/config"
	"github.com/dpetrovs/localsync/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ExternalKindS3 marks file entries whose bytes live in the S3-compatible
// blob store; ExternalRef then carries the object key.
const ExternalKindS3 = "s3"

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// BlobService is the blob-store collaborator. File bytes never pass
// through the server: clients upload and download directly against
// presigned URLs, and the engine only ever holds metadata.
type BlobService struct {
	config *sc.Config
	logger logging.Logger
}

func NewBlobService(config *sc.Config, logger logging.Logger) *BlobService {
	return &BlobService{
		config: config,
		logger: logger.With("module", "blob_service"),
	}
}

// Enabled reports whether object storage is configured. When false the
// upload/download surface is off but the sync engine keeps working.
func (b *BlobService) Enabled() bool {
	return b.config.S3BaseEndpoint != ""
}

// NewStorageKey generates the object key for a fresh upload.
func NewStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (b *BlobService) getClient(ctx context.Context) (*s3.Client, error) {
	if !b.Enabled() {
		return nil, common.ErrBlobNotConfigured
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(b.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			b.config.S3RootUser,
			b.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(b.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// GetPresignedPutURL returns a fresh object key and a temporary URL the
// client PUTs the file bytes to.
func (b *BlobService) GetPresignedPutURL(ctx context.Context) (string, string, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := b.config.S3Bucket
	key := NewStorageKey()

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetURL returns a temporary download URL for the object key.
func (b *BlobService) GetPresignedGetURL(ctx context.Context, key string) (string, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := b.config.S3Bucket

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// DeleteObject removes one object from the bucket.
func (b *BlobService) DeleteObject(ctx context.Context, key string) error {
	client, err := b.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := b.config.S3Bucket
	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}

// CleanupEntries deletes the physical objects behind removed file entries.
// Metadata is already gone at this point, so failures are logged and
// swallowed: a stray blob costs storage, not correctness.
func (b *BlobService) CleanupEntries(ctx context.Context, entries []models.FileEntry) {
	if !b.Enabled() {
		return
	}
	for _, entry := range entries {
		if entry.ExternalKind != ExternalKindS3 || entry.ExternalRef == "" {
			continue
		}
		if err := b.DeleteObject(ctx, entry.ExternalRef); err != nil {
			b.logger.Error(ctx, "blob delete failed", "key", entry.ExternalRef, "error", err)
		}
	}
}
