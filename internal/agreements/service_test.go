package agreements

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wedplan-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/angelmondragon/wedplan-backend/pkg/storage/gcs"
)

type stubUploader struct {
	calls []string
	err   error
}

func (s *stubUploader) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (gcs.Object, error) {
	s.calls = append(s.calls, name)
	if s.err != nil {
		return gcs.Object{}, s.err
	}
	if bucket == "" {
		bucket = "default-bucket"
	}
	return gcs.Object{Bucket: bucket, Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}

func sampleRequest() Request {
	due := time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)
	return Request{
		BookingID:      uuid.New(),
		SnapshotID:     uuid.New(),
		ProductLabel:   "The Grand Hall",
		CustomerName:   "Jamie Rivera",
		TotalCents:     money.Cents(100000),
		DepositCents:   money.Cents(25000),
		RemainingCents: money.Cents(75000),
		FinalDueAt:     &due,
		LineItems: []LineItem{
			{Description: "Ballroom rental", AmountCents: money.Cents(80000)},
			{Description: "Café setup", AmountCents: money.Cents(20000)},
		},
		PlanDescription: "Deposit of $250.00 today, then 8 monthly payments of $93.75.",
		IssuedAt:        time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	req := sampleRequest()
	blob, err := Render(req)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(blob, []byte("%PDF-")))

	again, err := Render(req)
	require.NoError(t, err)
	assert.Equal(t, blob, again, "same request and issue date render identical bytes")

	other := req
	other.SnapshotID = uuid.New()
	differs, err := Render(other)
	require.NoError(t, err)
	assert.NotEqual(t, blob, differs, "the agreement id is printed on the document")
}

func TestRenderUnresolvedBalance(t *testing.T) {
	req := sampleRequest()
	req.FinalDueAt = nil
	req.LineItems = nil
	blob, err := Render(req)
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
}

func TestObjectKey(t *testing.T) {
	booking := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	snapshot := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "agreements/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.pdf", ObjectKey("agreements", booking, snapshot))
	assert.Equal(t, "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.pdf", ObjectKey("", booking, snapshot))
}

func TestDecodeLineItems(t *testing.T) {
	items, err := DecodeLineItems([]byte(`[{"description":"Cake","amount_cents":45000}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, money.Cents(45000), items[0].AmountCents)

	items, err = DecodeLineItems(nil)
	require.NoError(t, err)
	assert.Nil(t, items)

	_, err = DecodeLineItems([]byte(`{"nope":true}`))
	require.Error(t, err)
}

func TestServiceGenerateStoresOnce(t *testing.T) {
	conn := dbtest.Open(t)
	up := &stubUploader{}
	svc, err := NewService(NewRepository(conn), up, "", "agreements", logger.Nop())
	require.NoError(t, err)

	req := sampleRequest()
	doc, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "default-bucket", doc.Bucket)
	assert.Equal(t, ObjectKey("agreements", req.BookingID, req.SnapshotID), doc.ObjectKey)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Positive(t, doc.SizeBytes)

	again, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)
	assert.Len(t, up.calls, 1)
}

func TestServiceGenerateUploadFailure(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, &stubUploader{err: errors.New("503 backend error")}, "bucket", "agreements", logger.Nop())
	require.NoError(t, err)

	req := sampleRequest()
	_, err = svc.Generate(context.Background(), req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = repo.FindBySnapshot(context.Background(), req.SnapshotID)
	require.Error(t, err)
}

func TestServiceGenerateRequiresIDs(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)), &stubUploader{}, "bucket", "", logger.Nop())
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), Request{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
