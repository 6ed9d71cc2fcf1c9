// Package params reads configuration values from AWS SSM Parameter Store with
// a default fallback for missing keys.
package params

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"golang.org/x/time/rate"

	"proctorwis.org/internal/obs"
)

// GetParameter has a hard account-level throughput ceiling; reads pass a
// local limiter so a burst of resolutions cannot trip SSM throttling.
const defaultReadsPerSecond = 40

// API is the slice of the SSM client this package consumes.
type API interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type Client struct {
	api     API
	limiter *rate.Limiter
}

// New builds a client from the default AWS config chain (environment,
// shared config, instance role).
func New(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(ssm.NewFromConfig(cfg)), nil
}

// NewWithAPI wraps an existing client, typically a fake in tests.
func NewWithAPI(api API) *Client {
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(defaultReadsPerSecond), defaultReadsPerSecond),
	}
}

// Get returns the decrypted value stored under key. A missing parameter is
// not an error: the default is returned and a warning logged. Every other
// failure propagates unchanged.
func (c *Client) Get(ctx context.Context, key, defaultValue string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			obs.LogEvent("params.parameter_missing", map[string]any{
				"level": "warn",
				"key":   key,
			})
			return defaultValue, nil
		}
		return "", err
	}
	return aws.ToString(out.Parameter.Value), nil
}
