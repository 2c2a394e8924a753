// Package lambdaboot provides the Lambda cold-start bootstrap: AWS config,
// API key lookup in SSM Parameter Store, and the startup log.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/auth"
	"github.com/fpang/slide-digest/internal/config"
	"github.com/fpang/slide-digest/internal/logging"
)

const defaultParamPrefix = "/slide-digest/prod/"

// AWSClients holds the AWS SDK clients used at cold start.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
	S3     *s3.Client
}

// InitAWS loads the default AWS config and returns it along with the SSM and
// S3 clients.
func InitAWS(ctx context.Context) AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
	}
}

// LoadConfig loads the configuration of a Lambda deployment. Local disk does
// not outlive an execution environment, so SLIDE_STORAGE defaults to s3 and
// file storage is rejected.
func LoadConfig() (config.Config, error) {
	if os.Getenv("SLIDE_STORAGE") == "" {
		os.Setenv("SLIDE_STORAGE", config.StorageS3)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Storage != config.StorageS3 {
		return config.Config{}, fmt.Errorf("SLIDE_STORAGE must be %s in Lambda, got %q", config.StorageS3, cfg.Storage)
	}
	return cfg, nil
}

// ParameterAPI is the subset of the SSM client used here.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParamName returns the SSM parameter holding the provider's key. The
// SSM_API_KEY_PARAM variable overrides the default
// /slide-digest/prod/<provider>-api-key.
func ParamName(provider string) string {
	if name := os.Getenv("SSM_API_KEY_PARAM"); name != "" {
		return name
	}
	return defaultParamPrefix + provider + "-api-key"
}

// LoadAPIKey makes sure the provider's key environment variable is set,
// fetching it from SSM when it is not. Providers that need no key are a no-op.
func LoadAPIKey(ctx context.Context, client ParameterAPI, provider string) error {
	envVar := auth.EnvVar(provider)
	if envVar == "" || os.Getenv(envVar) != "" {
		return nil
	}

	paramName := ParamName(provider)
	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read API key from SSM parameter %s: %w", paramName, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", paramName)
	}

	os.Setenv(envVar, aws.ToString(result.Parameter.Value))
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("API key loaded from SSM")
	return nil
}

// StartupLog returns a startup logger pre-filled from cfg.
func StartupLog(name string, cfg config.Config, initStart time.Time) *logging.StartupLogger {
	sl := logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		Provider("name", cfg.Provider).
		Provider("describeModel", cfg.DescribeModel).
		Provider("summaryModel", cfg.SummaryModel).
		Storage("backend", cfg.Storage).
		Config("profile", cfg.PromptProfile).
		Config("transcript", cfg.TranscriptName).
		Feature("mock", cfg.Mock).
		Feature("emfMetrics", cfg.EMFMetrics)
	if cfg.Storage == config.StorageS3 {
		sl.Storage("bucket", cfg.S3Bucket).Storage("prefix", cfg.S3Prefix)
	} else {
		sl.Storage("dataDir", cfg.DataDir)
	}
	return sl
}
