package devops

import (
	"context"
	"fmt"
	"sync"

	"biotrack.com.au/biotrack/connector"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var (
	once     sync.Once
	profiles []connector.Profile
	loadErr  error
)

// LoadRemoteProfiles fetches the device-profile yaml from an SSM parameter.
// Lets a fleet of connectors share one profile source instead of shipping
// files to every host.
func LoadRemoteProfiles(ctx context.Context, paramName string) ([]connector.Profile, error) {
	once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			loadErr = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := ssm.NewFromConfig(cfg)

		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(paramName),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			loadErr = fmt.Errorf("get parameter: %w", err)
			return
		}

		parsed, err := connector.ParseProfiles([]byte(*out.Parameter.Value))
		if err != nil {
			loadErr = err
			return
		}

		profiles = parsed
	})

	return profiles, loadErr
}
