package backends

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/kidylee/incubator-opendal/interfaces"
)

func init() {
	Register("azblob", func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
		return NewAzblobBackend(cfg, log)
	})
}

// AzblobOptions configures the Azure Blob Storage backend. Without an
// account key the backend accesses public containers anonymously.
type AzblobOptions struct {
	Container   string `mapstructure:"container" validate:"required"`
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`
	Endpoint    string `mapstructure:"endpoint"`
	Prefix      string `mapstructure:"prefix"`
}

// AzblobBackend stores content as blobs in an Azure Blob Storage
// container.
type AzblobBackend struct {
	client    *azblob.Client
	container string
	prefix    string
	log       *slog.Logger
}

// NewAzblobBackend creates an Azure Blob Storage backend from the
// configuration map.
func NewAzblobBackend(cfg interfaces.Config, log *slog.Logger) (*AzblobBackend, error) {
	var opts AzblobOptions
	if err := decodeConfig(cfg, &opts); err != nil {
		return nil, err
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		if opts.AccountName == "" {
			return nil, fmt.Errorf("%w: either endpoint or account_name is required", interfaces.ErrInvalidConfig)
		}
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", opts.AccountName)
	}

	var client *azblob.Client
	var err error
	if opts.AccountName != "" && opts.AccountKey != "" {
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(opts.AccountName, opts.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid shared key credential: %v", interfaces.ErrInvalidConfig, err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	} else {
		log.Warn("No Azure credentials provided - container assumed to be public")
		client, err = azblob.NewClientWithNoCredential(endpoint, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create blob client: %v", interfaces.ErrInvalidConfig, err)
	}

	return &AzblobBackend{
		client:    client,
		container: opts.Container,
		prefix:    strings.Trim(opts.Prefix, "/"),
		log:       log,
	}, nil
}

// Read downloads the blob at path.
func (b *AzblobBackend) Read(ctx context.Context, p string) ([]byte, error) {
	name := b.blobName(p)

	resp, err := b.client.DownloadStream(ctx, b.container, name, nil)
	if err != nil {
		return nil, mapAzblobError(err, "download blob")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob body: %w", err)
	}

	b.log.Debug("Read content from Azure Blob Storage",
		slog.String("container", b.container),
		slog.String("blob", name),
		slog.Int("size", len(data)))

	return data, nil
}

// Write uploads data to the blob at path, replacing any previous content.
func (b *AzblobBackend) Write(ctx context.Context, p string, data []byte) error {
	name := b.blobName(p)

	if _, err := b.client.UploadBuffer(ctx, b.container, name, data, nil); err != nil {
		return mapAzblobError(err, "upload blob")
	}

	b.log.Debug("Wrote content to Azure Blob Storage",
		slog.String("container", b.container),
		slog.String("blob", name),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes the blob at path. A missing blob is a no-op.
func (b *AzblobBackend) Delete(ctx context.Context, p string) error {
	if _, err := b.client.DeleteBlob(ctx, b.container, b.blobName(p), nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return mapAzblobError(err, "delete blob")
	}
	return nil
}

// Stat reads the properties of the blob at path.
func (b *AzblobBackend) Stat(ctx context.Context, p string) (interfaces.Stat, error) {
	blobClient := b.client.ServiceClient().
		NewContainerClient(b.container).
		NewBlobClient(b.blobName(p))

	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return interfaces.Stat{}, mapAzblobError(err, "get blob properties")
	}

	stat := interfaces.Stat{
		Path: p,
		Mode: interfaces.EntryModeFile,
	}
	if props.ContentLength != nil {
		stat.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		stat.LastModified = *props.LastModified
	}
	if props.ContentType != nil {
		stat.ContentType = *props.ContentType
	}
	return stat, nil
}

// List pages through the container and returns the paths of all blobs
// with the given prefix, relative to the backend prefix.
func (b *AzblobBackend) List(ctx context.Context, prefix string) ([]string, error) {
	full := b.blobName(prefix)
	pager := b.client.NewListBlobsFlatPager(b.container, &azblob.ListBlobsFlatOptions{
		Prefix: &full,
	})

	var paths []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapAzblobError(err, "list blobs")
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			name := *item.Name
			if b.prefix != "" {
				name = strings.TrimPrefix(strings.TrimPrefix(name, b.prefix), "/")
			}
			paths = append(paths, name)
		}
	}
	return paths, nil
}

// Close is a no-op; the SDK client needs no explicit teardown.
func (b *AzblobBackend) Close(ctx context.Context) error {
	return nil
}

// Scheme returns "azblob".
func (b *AzblobBackend) Scheme() string {
	return "azblob"
}

// Name returns an identifier for logging.
func (b *AzblobBackend) Name() string {
	return fmt.Sprintf("azblob-%s", b.container)
}

func (b *AzblobBackend) blobName(p string) string {
	p = strings.TrimPrefix(p, "/")
	if b.prefix == "" {
		return p
	}
	return path.Join(b.prefix, p)
}

// mapAzblobError translates Azure storage error codes onto the shared
// taxonomy.
func mapAzblobError(err error, op string) error {
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound):
		return interfaces.ErrNotFound
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.AuthorizationFailure, bloberror.InsufficientAccountPermissions):
		return fmt.Errorf("%w: %v", interfaces.ErrPermissionDenied, err)
	case bloberror.HasCode(err, bloberror.AccountIsDisabled):
		return fmt.Errorf("%w: %v", interfaces.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
