package backends

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("vault", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewVaultBackend(cfg, log)
	})
}

// VaultOptions configures the HashiCorp Vault backend.
type VaultOptions struct {
	Address string `mapstructure:"address" validate:"required,url"`
	Token   string `mapstructure:"token"`

	// Mount is the KV v2 mount path, "secret" by default.
	Mount string `mapstructure:"mount"`

	// Prefix is prepended to every secret path within the mount.
	Prefix string `mapstructure:"prefix"`
}

// VaultBackend stores content as KV v2 secrets, one secret per path with
// the content carried base64-encoded under a single "content" key.
type VaultBackend struct {
	client *api.Client
	mount  string
	prefix string
	log    *slog.Logger
}

// NewVaultBackend creates a Vault backend from the configuration map.
func NewVaultBackend(cfg interfaces.Config, log *slog.Logger) (*VaultBackend, error) {
	var opts VaultOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	config := api.DefaultConfig()
	config.Address = opts.Address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Vault client: %v", interfaces.ErrInvalidConfig, err)
	}
	if opts.Token != "" {
		client.SetToken(opts.Token)
	}

	mount := strings.Trim(opts.Mount, "/")
	if mount == "" {
		mount = "secret"
	}

	return &VaultBackend{
		client: client,
		mount:  mount,
		prefix: strings.Trim(opts.Prefix, "/"),
		log:    log,
	}, nil
}

// Read fetches the secret at path and decodes its content.
func (b *VaultBackend) Read(ctx context.Context, p string) ([]byte, error) {
	secret, err := b.client.KVv2(b.mount).Get(ctx, b.secretPath(p))
	if err != nil {
		return nil, mapVaultError(err, "get secret")
	}

	encoded, ok := secret.Data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("secret at %s has no content field", p)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret content: %w", err)
	}

	b.log.Debug("Read content from Vault",
		slog.String("mount", b.mount),
		slog.String("path", b.secretPath(p)),
		slog.Int("size", len(data)))

	return data, nil
}

// Write stores data as the secret at path, replacing any previous
// version.
func (b *VaultBackend) Write(ctx context.Context, p string, data []byte) error {
	_, err := b.client.KVv2(b.mount).Put(ctx, b.secretPath(p), map[string]interface{}{
		"content": base64.StdEncoding.EncodeToString(data),
		"size":    len(data),
	})
	if err != nil {
		return mapVaultError(err, "put secret")
	}

	b.log.Debug("Wrote content to Vault",
		slog.String("mount", b.mount),
		slog.String("path", b.secretPath(p)),
		slog.Int("size", len(data)))

	return nil
}

// Delete permanently removes the secret at path and its metadata. A
// missing secret is a no-op.
func (b *VaultBackend) Delete(ctx context.Context, p string) error {
	if err := b.client.KVv2(b.mount).DeleteMetadata(ctx, b.secretPath(p)); err != nil {
		mapped := mapVaultError(err, "delete secret")
		if mapped == interfaces.ErrNotFound {
			return nil
		}
		return mapped
	}
	return nil
}

// Stat reads the secret to report its size; Vault has no cheaper
// per-secret size probe. LastModified comes from version metadata.
func (b *VaultBackend) Stat(ctx context.Context, p string) (interfaces.Stat, error) {
	secret, err := b.client.KVv2(b.mount).Get(ctx, b.secretPath(p))
	if err != nil {
		return interfaces.Stat{}, mapVaultError(err, "get secret")
	}

	encoded, _ := secret.Data["content"].(string)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return interfaces.Stat{}, fmt.Errorf("failed to decode secret content: %w", err)
	}

	stat := interfaces.Stat{
		Path: p,
		Mode: interfaces.EntryModeFile,
		Size: int64(len(data)),
	}
	if secret.VersionMetadata != nil {
		stat.LastModified = secret.VersionMetadata.CreatedTime
	}
	return stat, nil
}

// List enumerates secret names under prefix via the metadata endpoint.
func (b *VaultBackend) List(ctx context.Context, prefix string) ([]string, error) {
	listPath := path.Join(b.mount, "metadata", b.secretPath(prefix))

	secret, err := b.client.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, mapVaultError(err, "list secrets")
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	keys, _ := secret.Data["keys"].([]interface{})
	var paths []string
	for _, key := range keys {
		name, ok := key.(string)
		if !ok {
			continue
		}
		paths = append(paths, path.Join(strings.Trim(prefix, "/"), name))
	}
	return paths, nil
}

// Close is a no-op; the API client needs no explicit teardown.
func (b *VaultBackend) Close(ctx context.Context) error {
	return nil
}

// Scheme returns "vault".
func (b *VaultBackend) Scheme() string {
	return "vault"
}

// Name returns an identifier for logging.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s", b.mount)
}

func (b *VaultBackend) secretPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if b.prefix == "" {
		return p
	}
	return path.Join(b.prefix, p)
}

// mapVaultError translates Vault API errors onto the shared taxonomy.
func mapVaultError(err error, op string) error {
	if errors.Is(err, api.ErrSecretNotFound) {
		return interfaces.ErrNotFound
	}

	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return interfaces.ErrNotFound
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", interfaces.ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("vault %s failed: %w", op, err)
}
