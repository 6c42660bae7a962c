package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/auth"
	sc "github.com/verarta/artledger/internal/server/config"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

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
)

// ArchiveService hands out presigned S3 URLs for moving assembled ciphertext
// archives of completed files in and out of cold storage. The ledger itself
// never proxies archive bytes.
type ArchiveService struct {
	store  repomanager.Store
	config *sc.Config
	logger logging.Logger
}

func NewArchiveService(store repomanager.Store, config *sc.Config, logger logging.Logger) *ArchiveService {
	return &ArchiveService{
		store:  store,
		config: config,
		logger: logger.With("module", "archive_service"),
	}
}

// archiveStorageKey shards objects by date so buckets stay listable.
func archiveStorageKey(fileID uint64) string {
	d := time.Now()
	return fmt.Sprintf("archives/%d/%d/%d/%d-%v", d.Year(), d.Month(), d.Day(), fileID, uuid.New())
}

func (s *ArchiveService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// checkExportable verifies the caller may export the file and that its
// upload has reached the terminal complete state.
func (s *ArchiveService) checkExportable(ctx context.Context, caller auth.Caller, fileID uint64) error {
	return s.store.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		f, err := r.Files().Get(ctx, fileID)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		if !caller.IsOrService(f.Owner) {
			return fmt.Errorf("missing required authority: %w", ledgererr.ErrPermissionDenied)
		}
		if !f.UploadComplete {
			return fmt.Errorf("file upload not complete: %w", ledgererr.ErrFailedPrecondition)
		}
		return nil
	})
}

// PresignArchivePut returns a storage key and a presigned PUT URL for
// uploading the assembled archive of a completed file.
func (s *ArchiveService) PresignArchivePut(ctx context.Context, caller auth.Caller, fileID uint64) (string, string, error) {
	if err := s.checkExportable(ctx, caller, fileID); err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := archiveStorageKey(fileID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignTTL))
	if err != nil {
		return "", "", err
	}

	s.logger.Info(ctx, "archive put presigned", "file_id", fileID, "key", key)
	return key, req.URL, nil
}

// PresignArchiveGet returns a presigned GET URL for a previously stored
// archive object.
func (s *ArchiveService) PresignArchiveGet(ctx context.Context, caller auth.Caller, fileID uint64, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key cannot be empty: %w", ledgererr.ErrInvalidArgument)
	}
	if err := s.checkExportable(ctx, caller, fileID); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
