package databricks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// Environment variables read by Config.Resolve.
const (
	EnvHost       = "DATABRICKS_HOST"
	EnvToken      = "DATABRICKS_TOKEN"
	EnvClusterID  = "DATABRICKS_CLUSTER_ID"
	EnvConfigFile = "DATABRICKS_CONFIG_FILE"
)

// DefaultProfile is the profile read from the CLI configuration file when none is named.
const DefaultProfile = "DEFAULT"

var (
	// ErrMissingHost indicates no workspace host was configured.
	ErrMissingHost = errors.New("databricks host is required")

	// ErrMissingToken indicates no personal access token was configured.
	ErrMissingToken = errors.New("databricks token is required")

	// ErrProfileNotFound indicates an explicitly named profile is missing from the CLI
	// configuration file.
	ErrProfileNotFound = errors.New("databricks profile not found")
)

// Config identifies a workspace and the credentials used to talk to it.
type Config struct {
	Host      string
	Token     string
	ClusterID string

	// Profile names a section of the Databricks CLI configuration file.
	Profile string

	// ConfigFile is the Databricks CLI configuration file. Defaults to ~/.databrickscfg.
	ConfigFile string
}

// Resolve fills every empty field of c. Values set on c win over environment variables, which win
// over the profile in the CLI configuration file. A missing configuration file is only an error
// when a profile was named explicitly.
func (c Config) Resolve(fs afero.Fs, getenv func(string) string) (Config, error) {
	resolved := c

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}

	fill(&resolved.Host, getenv(EnvHost))
	fill(&resolved.Token, getenv(EnvToken))
	fill(&resolved.ClusterID, getenv(EnvClusterID))
	fill(&resolved.ConfigFile, getenv(EnvConfigFile))

	if resolved.ConfigFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			resolved.ConfigFile = filepath.Join(home, ".databrickscfg")
		}
	}

	section, err := resolved.profileSection(fs)
	if err != nil {
		return Config{}, err
	}

	if section != nil {
		fill(&resolved.Host, section.Key("host").String())
		fill(&resolved.Token, section.Key("token").String())
		fill(&resolved.ClusterID, section.Key("cluster_id").String())
	}

	resolved.Host = normalizeHost(resolved.Host)
	return resolved, nil
}

func (c Config) profileSection(fs afero.Fs) (*ini.Section, error) {
	profile := c.Profile
	if profile == "" {
		profile = DefaultProfile
	}

	if c.ConfigFile == "" {
		return nil, c.missingProfile(profile)
	}

	data, err := afero.ReadFile(fs, c.ConfigFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, c.missingProfile(profile)
		}
		return nil, errors.Wrapf(err, "read %v", c.ConfigFile)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %v", c.ConfigFile)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return nil, c.missingProfile(profile)
	}
	return section, nil
}

func (c Config) missingProfile(profile string) error {
	if c.Profile == "" {
		return nil
	}
	return errors.Wrapf(ErrProfileNotFound, "%q in %q", profile, c.ConfigFile)
}

// Validate ensures c has enough information to reach a workspace.
func (c Config) Validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/")
}
