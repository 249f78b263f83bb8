package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hyeworks/aucbot/aucbot/database/models"
)

// SpacesService serves card artwork from a DigitalOcean Spaces bucket.
type SpacesService struct {
	client   *s3.Client
	bucket   string
	region   string
	cardRoot string
}

func NewSpacesService(key, secret, region, bucket, cardRoot string) (*SpacesService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	return &SpacesService{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		region:   region,
		cardRoot: strings.TrimPrefix(cardRoot, "/"),
	}, nil
}

// CardImageURL builds the public URL of a card's artwork for embeds.
func (s *SpacesService) CardImageURL(card *models.Card) string {
	groupType := "girlgroups"
	for _, tag := range card.Tags {
		if tag == "boygroups" {
			groupType = tag
			break
		}
	}

	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s/%s/%s/%d_%s.jpg",
		s.bucket, s.region, s.cardRoot, groupType, card.ColID, card.Level, card.Name)
}

// CardImageExists checks whether the artwork object is actually present,
// so embeds can skip a broken image.
func (s *SpacesService) CardImageExists(ctx context.Context, card *models.Card) bool {
	key := strings.TrimPrefix(s.CardImageURL(card), fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/", s.bucket, s.region))
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err == nil
}
