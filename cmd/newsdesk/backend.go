package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pevans/newsdesk/config"
	"github.com/pevans/newsdesk/media"
	"github.com/pevans/newsdesk/remote"
)

const httpTimeout = 30 * time.Second

func noClose() error { return nil }

// openTree opens the remote tree selected by remote.type. The returned
// func releases whatever connection the tree holds.
func openTree(ctx context.Context, cfg *config.FileConfig) (remote.Tree, func() error, error) {
	rc := cfg.Remote
	switch rc.Type {
	case config.RemoteMemory:
		return remote.NewMemoryTree(), noClose, nil
	case config.RemoteSQLite:
		t, err := remote.NewSQLiteTree(rc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	case config.RemoteFirebase:
		client := &http.Client{Timeout: httpTimeout}
		return remote.NewRESTTree(rc.URL, rc.Secret, client), noClose, nil
	case config.RemoteMongo:
		t, err := remote.NewMongoTree(ctx, rc.DSN, rc.Database, rc.Collection)
		if err != nil {
			return nil, nil, err
		}
		return t, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return t.Close(ctx)
		}, nil
	case config.RemotePostgres:
		t, err := remote.NewPostgresTree(ctx, rc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown remote type %q", rc.Type)
	}
}

// newUploader builds the image upload service selected by upload.type. A
// nil uploader means uploads are disabled. The returned directory is
// non-empty when uploaded files should be served locally.
func newUploader(cfg *config.FileConfig) (media.Uploader, string, error) {
	uc := cfg.Upload
	switch uc.Type {
	case config.UploadNone:
		return nil, "", nil
	case config.UploadImgBB:
		client := &http.Client{Timeout: httpTimeout}
		return media.NewHTTPUploader(uc.Endpoint, uc.APIKey, client), "", nil
	case config.UploadDir:
		u, err := media.NewDirUploader(uc.Dir, uc.BaseURL)
		if err != nil {
			return nil, "", err
		}
		return u, u.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown upload type %q", uc.Type)
	}
}
