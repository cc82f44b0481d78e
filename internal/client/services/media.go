package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/client"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/filex"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/netx"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
)

// MediaService moves photo binaries between the media directory and object
// storage through presigned URLs. Row metadata travels through the change
// queue; this service only handles bytes.
type MediaService struct {
	store    DBProvider
	remote   client.Client
	http     *http.Client
	mediaDir string
	logger   logging.Logger
	repos    repomanager.Manager
}

func NewMediaService(store DBProvider, remote client.Client, hc *http.Client, mediaDir string, logger logging.Logger) *MediaService {
	return &MediaService{
		store:    store,
		remote:   remote,
		http:     hc,
		mediaDir: mediaDir,
		logger:   logger.With("module", "media"),
	}
}

// UploadPending uploads every binary marked pending. A failed upload is
// logged and stays marked for the next pass. It returns the number of
// binaries uploaded.
func (s *MediaService) UploadPending(ctx context.Context) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}

	ids, err := s.repos.Uploads(db).ListPending(ctx)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}

		p, err := s.repos.Photos(db).Get(ctx, id, true)
		if errors.Is(err, common.ErrorNotFound) {
			// row is gone, nothing left to upload
			if err := s.repos.Uploads(db).Done(ctx, id); err != nil {
				return uploaded, err
			}
			continue
		}
		if err != nil {
			return uploaded, err
		}

		if err := s.upload(ctx, p); err != nil {
			s.logger.Warn(ctx, "photo upload failed", "photo", id, "error", err)
			continue
		}
		if err := s.repos.Uploads(db).Done(ctx, id); err != nil {
			return uploaded, err
		}
		uploaded++
	}
	return uploaded, nil
}

func (s *MediaService) upload(ctx context.Context, p *models.Photo) error {
	if p.LocalURI == nil {
		return fmt.Errorf("photo %s has no local copy", p.ID)
	}
	f, err := os.Open(*p.LocalURI)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	url, err := s.remote.PresignPhoto(ctx, p.URI, rpc.PresignPut)
	if err != nil {
		return err
	}
	return netx.PutPresigned(ctx, s.http, url, f, fi.Size())
}

// FetchMissing downloads binaries for live photos whose local copy is
// absent and records the new local path. local_uri is device-local, so the
// change is not queued. It returns the number of binaries fetched.
func (s *MediaService) FetchMissing(ctx context.Context) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}

	photos, err := s.repos.Photos(db).List(ctx, false)
	if err != nil {
		return 0, err
	}

	pending, err := s.repos.Uploads(db).ListPending(ctx)
	if err != nil {
		return 0, err
	}
	notUploaded := make(map[string]bool, len(pending))
	for _, id := range pending {
		notUploaded[id] = true
	}

	var dir string
	fetched := 0
	for _, p := range photos {
		if p.LocalURI != nil && filex.Exists(*p.LocalURI) {
			continue
		}
		if notUploaded[p.ID] || p.URI == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		if dir == "" {
			if dir, err = filex.EnsureDir(s.mediaDir); err != nil {
				return fetched, err
			}
		}

		local := filepath.Join(dir, filepath.Base(p.URI))
		if err := s.download(ctx, p.URI, local); err != nil {
			s.logger.Warn(ctx, "photo download failed", "photo", p.ID, "error", err)
			continue
		}

		// the row may have changed while downloading; touch local_uri only
		err := s.repos.SetPhotoLocalURI(ctx, db, p.ID, local)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return fetched, err
		}
		fetched++
	}
	return fetched, nil
}

func (s *MediaService) download(ctx context.Context, key, local string) error {
	url, err := s.remote.PresignPhoto(ctx, key, rpc.PresignGet)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(local), ".dl-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := netx.GetPresigned(ctx, s.http, url, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), local)
}
