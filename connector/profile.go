package connector

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                 = 4370
	DefaultConnectTimeoutMs     = 30000
	DefaultReconnectIntervalMs  = 10000
	DefaultMaxReconnectAttempts = 5
	DefaultPollIntervalMs       = 5000

	// GET_RECORDS is the widest supported request form. *GETATT* and GETATT
	// variants exist in the wild; they are per-profile configuration, never
	// probed at runtime.
	DefaultPollCommand = "GET_RECORDS"
)

var validate = validator.New()

// Profile is the per-device connection configuration.
type Profile struct {
	Name                 string         `yaml:"name" validate:"required"`
	IP                   string         `yaml:"ip" validate:"required"`
	Port                 int            `yaml:"port" validate:"gte=1,lte=65535"`
	AuthUserID           string         `yaml:"authUserId"`
	AuthPassword         string         `yaml:"authPassword"`
	ConnectTimeoutMs     int            `yaml:"connectTimeoutMs" validate:"gt=0"`
	ReconnectIntervalMs  int            `yaml:"reconnectIntervalMs" validate:"gt=0"`
	MaxReconnectAttempts int            `yaml:"maxReconnectAttempts" validate:"gte=1"`
	PollIntervalMs       int            `yaml:"pollIntervalMs" validate:"gt=0"`
	PollCommand          string         `yaml:"pollCommand"`
	ArchiveBucket        string         `yaml:"archiveBucket"`
	UserIDMapping        map[int]string `yaml:"userIdMapping"`
}

func (p *Profile) ApplyDefaults() {
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.ConnectTimeoutMs == 0 {
		p.ConnectTimeoutMs = DefaultConnectTimeoutMs
	}
	if p.ReconnectIntervalMs == 0 {
		p.ReconnectIntervalMs = DefaultReconnectIntervalMs
	}
	if p.MaxReconnectAttempts == 0 {
		p.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if p.PollIntervalMs == 0 {
		p.PollIntervalMs = DefaultPollIntervalMs
	}
	if p.PollCommand == "" {
		p.PollCommand = DefaultPollCommand
	}
}

func (p *Profile) Endpoint() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

func (p *Profile) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutMs) * time.Millisecond
}

func (p *Profile) ReconnectInterval() time.Duration {
	return time.Duration(p.ReconnectIntervalMs) * time.Millisecond
}

func (p *Profile) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}

type profileFile struct {
	Devices []Profile `yaml:"devices"`
}

// LoadProfiles reads a yaml device-profile file, applies defaults and
// validates each entry.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return ParseProfiles(data)
}

func ParseProfiles(data []byte) ([]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal profiles: %w", err)
	}
	if len(file.Devices) == 0 {
		return nil, fmt.Errorf("no devices configured")
	}

	for i := range file.Devices {
		file.Devices[i].ApplyDefaults()
		if err := validate.Struct(&file.Devices[i]); err != nil {
			return nil, fmt.Errorf("device profile %d invalid: %w", i, err)
		}
	}
	return file.Devices, nil
}
