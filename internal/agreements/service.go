package agreements

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/storage/gcs"
)

const pdfContentType = "application/pdf"

type uploader interface {
	Upload(ctx context.Context, bucket, name, contentType string, data []byte) (gcs.Object, error)
}

// Service renders booking agreements and stores them in GCS.
type Service struct {
	repo     Repository
	storage  uploader
	bucket   string
	prefix   string
	logg     *logger.Logger
	renderFn func(Request) ([]byte, error)
}

// NewService wires the agreement generator. bucket may be empty to use the
// storage client's default bucket.
func NewService(repo Repository, storage uploader, bucket, prefix string, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("agreement repository required")
	}
	if storage == nil {
		return nil, errors.New("agreement storage required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Service{
		repo:     repo,
		storage:  storage,
		bucket:   bucket,
		prefix:   prefix,
		logg:     logg,
		renderFn: Render,
	}, nil
}

// Generate renders the agreement for a snapshot and records where it was
// stored. A snapshot that already has a document returns the stored one.
func (s *Service) Generate(ctx context.Context, req Request) (*models.AgreementDocument, error) {
	if req.BookingID == uuid.Nil || req.SnapshotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking and snapshot ids are required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"booking_id":  req.BookingID.String(),
		"snapshot_id": req.SnapshotID.String(),
	})

	existing, err := s.repo.FindBySnapshot(ctx, req.SnapshotID)
	switch {
	case err == nil:
		s.logg.Info(ctx, "agreement already stored")
		return existing, nil
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup agreement document")
	}

	blob, err := s.renderFn(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render agreement")
	}

	obj, err := s.storage.Upload(ctx, s.bucket, ObjectKey(s.prefix, req.BookingID, req.SnapshotID), pdfContentType, blob)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload agreement")
	}

	doc := &models.AgreementDocument{
		BookingID:   req.BookingID,
		SnapshotID:  req.SnapshotID,
		Bucket:      obj.Bucket,
		ObjectKey:   obj.Name,
		ContentType: obj.ContentType,
		SizeBytes:   obj.Size,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record agreement document")
	}

	s.logg.Info(s.logg.WithField(ctx, "object", obj.URI()), "agreement stored")
	return doc, nil
}
