package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

type Azure struct {
	client *azblob.Client
	expiry time.Duration
}

func NewAzure(cfg Config) (*Azure, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" {
		return nil, fmt.Errorf("azure storage requires an account name and key")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	serviceURL := cfg.Endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%v.blob.core.windows.net/", cfg.AccountName)
	}

	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: cfg.MaxRetries},
		},
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, opts)
	if err != nil {
		return nil, err
	}

	return &Azure{client: client, expiry: cfg.URLExpiry}, nil
}

func (a *Azure) blobClient(container, name string) *blob.Client {
	return a.client.ServiceClient().NewContainerClient(container).NewBlobClient(name)
}

func (a *Azure) Exists(ctx context.Context, container, name string) (bool, error) {
	_, err := a.blobClient(container, name).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound) {
		return false, nil
	}
	return false, err
}

func (a *Azure) ImageURL(_ context.Context, container, name string) (string, error) {
	expiry := time.Now().UTC().Add(a.expiry)
	return a.blobClient(container, name).GetSASURL(sas.BlobPermissions{Read: true}, expiry, nil)
}

func (a *Azure) Upload(ctx context.Context, container, name, contentType string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	return err
}

func (a *Azure) ListContainers(ctx context.Context) ([]string, error) {
	var names []string

	pager := a.client.NewListContainersPager(nil)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range resp.ContainerItems {
			if c.Name != nil {
				names = append(names, *c.Name)
			}
		}
	}

	return names, nil
}

func (a *Azure) ListBlobs(ctx context.Context, container, prefix string) ([]string, error) {
	var opts *azblob.ListBlobsFlatOptions
	if prefix != "" {
		opts = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}

	var names []string

	pager := a.client.NewListBlobsFlatPager(container, opts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if resp.Segment == nil {
			continue
		}
		for _, b := range resp.Segment.BlobItems {
			if b.Name != nil {
				names = append(names, *b.Name)
			}
		}
	}

	return names, nil
}

func (a *Azure) CountBlobs(ctx context.Context, container string) (int, error) {
	names, err := a.ListBlobs(ctx, container, "")
	if err != nil {
		return 0, err
	}
	return len(names), nil
}
