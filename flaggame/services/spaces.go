package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	lru "github.com/hashicorp/golang-lru"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

const existenceCacheSize = 4096

// SpacesService stores flag artwork in an S3-compatible Spaces bucket.
// Objects are keyed {countryCode}_{municipalitySlug}_{flagID}.png under the
// flag root; HeadObject results are cached because the catalog is immutable
// once uploaded.
type SpacesService struct {
	client   *s3.Client
	bucket   string
	region   string
	FlagRoot string

	exists *lru.Cache
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, flagRoot string) *SpacesService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load Spaces config: %v", err))
	}

	cache, _ := lru.New(existenceCacheSize)

	return &SpacesService{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		region:   region,
		FlagRoot: strings.TrimPrefix(flagRoot, "/"),
		exists:   cache,
	}
}

// FlagImageKey builds the object key for a flag's artwork.
func (s *SpacesService) FlagImageKey(countryCode, municipalitySlug string, flagID int64) string {
	name := fmt.Sprintf("%s_%s_%d.png", strings.ToUpper(countryCode), municipalitySlug, flagID)
	if s.FlagRoot == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", s.FlagRoot, name)
}

// FlagImageURL returns the public URL for a flag's artwork.
func (s *SpacesService) FlagImageURL(countryCode, municipalitySlug string, flagID int64) string {
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s",
		s.bucket, s.region, s.FlagImageKey(countryCode, municipalitySlug, flagID))
}

// UploadFlagImage stores the artwork and returns its public URL. The flag
// model is updated in place so the caller can persist the reference.
func (s *SpacesService) UploadFlagImage(ctx context.Context, flag *models.Flag, countryCode, municipalitySlug string, imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data for flag %d", flag.ID)
	}

	key := s.FlagImageKey(countryCode, municipalitySlug, flag.ID)
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(imageData),
		ContentType:  aws.String("image/png"),
		CacheControl: aws.String("public, max-age=31536000"),
		ACL:          types.ObjectCannedACLPublicRead,
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload flag image %s: %w", key, err)
	}

	url := s.FlagImageURL(countryCode, municipalitySlug, flag.ID)
	flag.ImageURL = url
	s.exists.Add(key, true)
	return url, nil
}

// FlagImageExists checks whether artwork was uploaded for the flag.
func (s *SpacesService) FlagImageExists(ctx context.Context, countryCode, municipalitySlug string, flagID int64) (bool, error) {
	key := s.FlagImageKey(countryCode, municipalitySlug, flagID)
	if cached, ok := s.exists.Get(key); ok {
		return cached.(bool), nil
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		// Missing objects come back as an API error; treat any HeadObject
		// failure as absent but do not cache it.
		return false, nil
	}

	s.exists.Add(key, true)
	return true, nil
}

// DeleteFlagImage removes the artwork object.
func (s *SpacesService) DeleteFlagImage(ctx context.Context, countryCode, municipalitySlug string, flagID int64) error {
	key := s.FlagImageKey(countryCode, municipalitySlug, flagID)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete flag image %s: %w", key, err)
	}
	s.exists.Remove(key)
	return nil
}

func (s *SpacesService) GetBucket() string { return s.bucket }

func (s *SpacesService) GetRegion() string { return s.region }
