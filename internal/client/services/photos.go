package services

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/filex"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/google/uuid"
)

// PhotoKey is the object storage key of a photo binary.
func PhotoKey(estimateID, photoID, ext string) string {
	return path.Join("photos", estimateID, photoID+strings.ToLower(ext))
}

// PhotoService attaches photos to estimates. Binaries are copied into the
// media directory; the upload itself happens later in MediaService.
type PhotoService struct {
	writer
	mediaDir string
}

func NewPhotoService(store DBProvider, mediaDir string) *PhotoService {
	return &PhotoService{writer: newWriter(store), mediaDir: mediaDir}
}

// Add copies srcPath into the media directory and records the photo. The
// row, its insert entry and the pending-upload mark are written together.
func (s *PhotoService) Add(ctx context.Context, estimateID, srcPath, description string) (*models.Photo, error) {
	if err := required("estimate id", estimateID); err != nil {
		return nil, err
	}
	if err := required("file", srcPath); err != nil {
		return nil, err
	}

	dir, err := filex.EnsureDir(s.mediaDir)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ext := filepath.Ext(srcPath)
	local := filepath.Join(dir, id+strings.ToLower(ext))

	if _, err := filex.CopyFile(srcPath, local); err != nil {
		return nil, fmt.Errorf("copy photo: %w", err)
	}

	p := &models.Photo{
		Revision:    models.Revision{ID: id},
		EstimateID:  estimateID,
		URI:         PhotoKey(estimateID, id, ext),
		LocalURI:    &local,
		Description: description,
	}

	err = s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Estimates(tx).Get(ctx, estimateID, false); err != nil {
			return err
		}
		if err := s.create(ctx, tx, p); err != nil {
			return err
		}
		return s.repos.Uploads(tx).MarkPending(ctx, id)
	})
	if err != nil {
		_ = filex.RemoveIfExists(local)
		return nil, fmt.Errorf("add photo: %w", err)
	}
	return p, nil
}

func (s *PhotoService) UpdateDescription(ctx context.Context, id, description string) (*models.Photo, error) {
	var p *models.Photo
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if p, err = s.repos.Photos(tx).Get(ctx, id, false); err != nil {
			return err
		}
		p.Description = description
		return s.update(ctx, tx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("update photo: %w", err)
	}
	return p, nil
}

// Delete soft-deletes the photo. The local copy is kept until the next
// reset.
func (s *PhotoService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := s.repos.Photos(tx).Get(ctx, id, false)
		if err != nil {
			return err
		}
		if err := s.softDelete(ctx, tx, p); err != nil {
			return err
		}
		return s.repos.Uploads(tx).Done(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

func (s *PhotoService) List(ctx context.Context, estimateID string) ([]*models.Photo, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Photos(db).ListBy(ctx, "estimate_id", estimateID, false)
}
