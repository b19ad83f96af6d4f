package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options selects region, endpoint and credentials for LoadAWSConfig.
type Options struct {
	Region string

	// Endpoint, when set, points every client at a single edge URL
	// (LocalStack) instead of the public AWS endpoints.
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
}

// localStackCredentials are accepted by LocalStack for any account.
const localStackCredentials = "test"

// LoadAWSConfig builds the shared aws.Config. Explicit keys win; otherwise a
// LocalStack endpoint gets dummy static keys and real AWS uses the default
// credential chain.
func LoadAWSConfig(ctx context.Context, o Options) (sdkaws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if o.Region != "" {
		opts = append(opts, config.WithRegion(o.Region))
	}

	switch {
	case o.AccessKeyID != "" || o.SecretAccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	case o.Endpoint != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(localStackCredentials, localStackCredentials, ""),
		))
	}

	if o.Endpoint != "" {
		resolver := sdkaws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (sdkaws.Endpoint, error) {
			signingRegion := o.Region
			if signingRegion == "" {
				signingRegion = region
			}
			return sdkaws.Endpoint{
				URL:               o.Endpoint,
				SigningRegion:     signingRegion,
				HostnameImmutable: true,
			}, nil
		})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}
