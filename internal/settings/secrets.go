package settings

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/subosito/gotenv"
)

// SecretsFile is the dotenv file of the configuration directory holding secrets to push to the
// workspace.
const SecretsFile = "secrets.env"

// LoadSecrets reads the secrets file of configDir. A missing file yields no secrets.
func LoadSecrets(fs afero.Fs, configDir string) (map[string]string, error) {
	path := filepath.Join(configDir, SecretsFile)

	fh, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "open %v", path)
	}
	defer fh.Close()

	env, err := gotenv.StrictParse(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %v", path)
	}

	return env, nil
}
