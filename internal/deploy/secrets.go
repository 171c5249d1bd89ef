package deploy

import (
	"context"
	"regexp"
	"sort"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
)

// InitialManagePrincipal is granted MANAGE permission on secret scopes created by SecretsManager.
const InitialManagePrincipal = "users"

// ErrInvalidSecretName indicates a secret scope or key name the workspace would reject.
var ErrInvalidSecretName = errors.New("secret scope and key names may only contain alphanumerics, dashes, underscores and periods, up to 128 characters")

var secretName = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// SecretsManager pushes secrets to a workspace secret scope.
type SecretsManager struct {
	api     SecretsAPI
	log     logr.Logger
	metrics *metrics.Recorder
}

// NewSecretsManager creates a SecretsManager.
func NewSecretsManager(api SecretsAPI, logger logr.Logger, recorder *metrics.Recorder) *SecretsManager {
	return &SecretsManager{api: api, log: logger.WithName("secrets"), metrics: recorder}
}

// CreateScopeIfNotExists creates a Databricks backed secret scope unless one named scope exists.
func (m *SecretsManager) CreateScopeIfNotExists(ctx context.Context, scope string) error {
	if !secretName.MatchString(scope) {
		return errors.Wrapf(ErrInvalidSecretName, "scope %q", scope)
	}

	scopes, err := m.api.ListSecretScopes(ctx)
	if err != nil {
		return errors.Wrap(err, "list secret scopes")
	}

	for _, s := range scopes {
		if s.Name == scope {
			return nil
		}
	}

	if err := m.api.CreateSecretScope(ctx, scope, InitialManagePrincipal); err != nil {
		return errors.Wrapf(err, "create secret scope %v", scope)
	}
	m.metrics.Resource(metrics.KindSecretScope, metrics.ActionCreate)
	m.log.Info("created secret scope", "scope", scope)

	return nil
}

// PushSecrets stores every secret in scope, creating the scope when needed. No secrets is a no-op.
// Names are checked before anything is written.
func (m *SecretsManager) PushSecrets(ctx context.Context, scope string, secrets map[string]string) error {
	if len(secrets) == 0 {
		return nil
	}

	if !secretName.MatchString(scope) {
		return errors.Wrapf(ErrInvalidSecretName, "scope %q", scope)
	}

	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		if !secretName.MatchString(k) {
			return errors.Wrapf(ErrInvalidSecretName, "key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := m.CreateScopeIfNotExists(ctx, scope); err != nil {
		return err
	}

	for _, k := range keys {
		if err := m.api.PutSecret(ctx, scope, k, secrets[k]); err != nil {
			return errors.Wrapf(err, "put secret %v", k)
		}
		m.metrics.Resource(metrics.KindSecret, metrics.ActionUpdate)
	}
	m.log.Info("pushed secrets", "scope", scope, "count", len(keys))

	return nil
}
