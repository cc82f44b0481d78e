package rpc

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func sampleEstimate() *models.Estimate {
	customer := "c1"
	e := &models.Estimate{
		Revision:   models.Revision{ID: "e1"},
		UserID:     "u1",
		CustomerID: &customer,
		Total:      42.5,
		MarkupRate: 10,
		Status:     models.StatusSent,
	}
	e.Touch(time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC))
	return e
}

func TestWriteRequest_RoundTrip(t *testing.T) {
	e := sampleEstimate()

	req, err := WriteRequest(e)
	require.NoError(t, err)

	got, err := ParseWriteRequest(req)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestParseWriteRequest_Invalid(t *testing.T) {
	_, err := ParseWriteRequest(&structpb.Struct{})
	require.ErrorIs(t, err, ErrInvalidRequest)

	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTable: structpb.NewStringValue("customers"),
	}}
	_, err = ParseWriteRequest(req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	row, err := structpb.NewStruct(map[string]any{"name": "no id"})
	require.NoError(t, err)
	req.Fields[fieldRow] = structpb.NewStructValue(row)
	_, err = ParseWriteRequest(req)
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, models.ErrMalformedChange)
}

func TestDeleteRequest_RoundTrip(t *testing.T) {
	table, id, err := ParseDeleteRequest(DeleteRequest(models.TablePhotos, "p1"))
	require.NoError(t, err)
	assert.Equal(t, models.TablePhotos, table)
	assert.Equal(t, "p1", id)

	_, _, err = ParseDeleteRequest(DeleteRequest(models.TablePhotos, ""))
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSelectRequest_RoundTrip(t *testing.T) {
	q, err := ParseSelectRequest(SelectRequest(SelectQuery{Table: models.TableCustomers, UserID: "u1"}))
	require.NoError(t, err)
	assert.Equal(t, SelectQuery{Table: models.TableCustomers, UserID: "u1"}, q)

	q, err = ParseSelectRequest(SelectRequest(SelectQuery{Table: models.TableEstimateItems, EstimateIDs: []string{"e1", "e2"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, q.EstimateIDs)
	assert.Empty(t, q.UserID)

	_, err = ParseSelectRequest(SelectRequest(SelectQuery{Table: models.TableEstimates}))
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ParseSelectRequest(SelectRequest(SelectQuery{Table: "users", UserID: "u1"}))
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRows_RoundTrip(t *testing.T) {
	now := time.Now()
	a := &models.Photo{Revision: models.Revision{ID: "p1"}, EstimateID: "e1", URI: "photos/e1/p1.jpg"}
	b := &models.Photo{Revision: models.Revision{ID: "p2"}, EstimateID: "e1", URI: "photos/e1/p2.jpg", Description: "roof"}
	a.Touch(now)
	b.MarkDeleted(now)

	lv, err := EncodeRows([]models.Record{a, b})
	require.NoError(t, err)

	got, err := DecodeRows(models.TablePhotos, lv)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0])
	assert.Equal(t, b, got[1])

	empty, err := DecodeRows(models.TablePhotos, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPresignRequest(t *testing.T) {
	key, m, err := ParsePresignRequest(PresignRequest("photos/e1/p1.jpg", PresignPut))
	require.NoError(t, err)
	assert.Equal(t, "photos/e1/p1.jpg", key)
	assert.Equal(t, PresignPut, m)

	_, _, err = ParsePresignRequest(PresignRequest("k", "delete"))
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, _, err = ParsePresignRequest(PresignRequest("", PresignGet))
	require.ErrorIs(t, err, ErrInvalidRequest)

	assert.Equal(t, "https://s3/x", ParseURLResponse(URLResponse("https://s3/x")))
}
