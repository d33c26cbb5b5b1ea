// Package awsclient resolves credentials and builds the EC2 and Service Quotas
// clients used for a single run.
package awsclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
)

// DefaultRegion is used when neither the user nor the config names one.
const DefaultRegion = "us-east-1"

// ErrPartialCredentials is returned when only part of a static key pair was supplied.
var ErrPartialCredentials = errors.New("partial credentials: access key id and secret access key must be given together")

// ErrNoCredentials is returned when no credentials could be resolved.
var ErrNoCredentials = errors.New("no aws credentials found")

// Credentials holds optional static credentials. All fields empty means the
// SDK default chain is used.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string
}

// Static reports whether a static key pair was supplied.
func (c Credentials) Static() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Validate rejects half-filled static credentials.
func (c Credentials) Validate() error {
	hasKey := c.AccessKeyID != ""
	hasSecret := c.SecretAccessKey != ""
	if hasKey != hasSecret {
		return ErrPartialCredentials
	}
	if c.SessionToken != "" && !hasKey {
		return fmt.Errorf("%w: session token given without keys", ErrPartialCredentials)
	}
	return nil
}

// Options controls client construction.
type Options struct {
	Region      string
	Credentials Credentials
	// Endpoint overrides the service endpoint for both clients.
	Endpoint string
}

// Clients is the pair of service clients a run works with.
type Clients struct {
	EC2           *ec2.Client
	ServiceQuotas *servicequotas.Client
	Region        string
	Config        aws.Config
}

// LoadConfig resolves an aws.Config from the given options.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	creds := trimCredentials(opts.Credentials)
	if err := creds.Validate(); err != nil {
		return aws.Config{}, err
	}

	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if creds.Static() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	} else if creds.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(creds.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// New builds the EC2 and Service Quotas clients.
func New(ctx context.Context, opts Options) (*Clients, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	ec2Client := ec2.NewFromConfig(cfg, func(o *ec2.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	sqClient := servicequotas.NewFromConfig(cfg, func(o *servicequotas.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &Clients{
		EC2:           ec2Client,
		ServiceQuotas: sqClient,
		Region:        cfg.Region,
		Config:        cfg,
	}, nil
}

// VerifyCredentials resolves credentials once so that an empty or broken
// credential chain is reported before the first API call.
func (c *Clients) VerifyCredentials(ctx context.Context) error {
	if c.Config.Credentials == nil {
		return ErrNoCredentials
	}
	creds, err := c.Config.Credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	if !creds.HasKeys() {
		return ErrNoCredentials
	}
	return nil
}

func trimCredentials(c Credentials) Credentials {
	return Credentials{
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		SessionToken:    strings.TrimSpace(c.SessionToken),
		Profile:         strings.TrimSpace(c.Profile),
	}
}
