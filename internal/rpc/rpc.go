// Package rpc describes the RemoteStore gRPC service shared by the client
// and the server.
//
// The service has no generated stubs: requests and responses are protobuf
// well-known types (structpb.Struct, structpb.ListValue, emptypb.Empty) and
// this package owns their field layout. Rows travel as JSON objects inside
// a Struct and are decoded into typed records by table name on both ends.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "estimatekeeper.remote.v1.RemoteStore"

const (
	MethodPing         = "/" + ServiceName + "/Ping"
	MethodInsert       = "/" + ServiceName + "/Insert"
	MethodUpdate       = "/" + ServiceName + "/Update"
	MethodDelete       = "/" + ServiceName + "/Delete"
	MethodSelect       = "/" + ServiceName + "/Select"
	MethodPresignPhoto = "/" + ServiceName + "/PresignPhoto"
)

const (
	fieldTable       = "table"
	fieldRow         = "row"
	fieldID          = "id"
	fieldUserID      = "user_id"
	fieldEstimateIDs = "estimate_ids"
	fieldKey         = "key"
	fieldMethod      = "method"
	fieldURL         = "url"
	fieldStatus      = "status"
)

// ErrInvalidRequest is returned when a request struct is missing fields or
// names an unknown table.
var ErrInvalidRequest = errors.New("invalid request")

// EncodeRecord converts rec into a Struct holding its JSON form.
func EncodeRecord(rec models.Record) (*structpb.Struct, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s row: %w", rec.Table(), err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode %s row: %w", rec.Table(), err)
	}
	return s, nil
}

// DecodeRecord converts a row Struct back into the typed record of table.
func DecodeRecord(table models.Table, s *structpb.Struct) (models.Record, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: missing row", ErrInvalidRequest)
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s row: %w", table, err)
	}
	rec, err := models.DecodeRecord(table, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return rec, nil
}

// WriteRequest builds an Insert/Update request for rec.
func WriteRequest(rec models.Record) (*structpb.Struct, error) {
	row, err := EncodeRecord(rec)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTable: structpb.NewStringValue(string(rec.Table())),
		fieldRow:   structpb.NewStructValue(row),
	}}, nil
}

// ParseWriteRequest is the server side of WriteRequest.
func ParseWriteRequest(req *structpb.Struct) (models.Record, error) {
	table, err := parseTable(req)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(table, req.GetFields()[fieldRow].GetStructValue())
}

// DeleteRequest builds a Delete request.
func DeleteRequest(table models.Table, id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTable: structpb.NewStringValue(string(table)),
		fieldID:    structpb.NewStringValue(id),
	}}
}

// ParseDeleteRequest is the server side of DeleteRequest.
func ParseDeleteRequest(req *structpb.Struct) (models.Table, string, error) {
	table, err := parseTable(req)
	if err != nil {
		return "", "", err
	}
	id := req.GetFields()[fieldID].GetStringValue()
	if id == "" {
		return "", "", fmt.Errorf("%w: missing id", ErrInvalidRequest)
	}
	return table, id, nil
}

// SelectQuery is a bulk read. Exactly one of UserID and EstimateIDs is
// used, chosen by the table's scope column.
type SelectQuery struct {
	Table       models.Table
	UserID      string
	EstimateIDs []string
}

// SelectRequest builds a Select request for q.
func SelectRequest(q SelectQuery) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldTable: structpb.NewStringValue(string(q.Table)),
	}
	if q.Table.ScopeColumn() == "estimate_id" {
		ids := make([]*structpb.Value, 0, len(q.EstimateIDs))
		for _, id := range q.EstimateIDs {
			ids = append(ids, structpb.NewStringValue(id))
		}
		fields[fieldEstimateIDs] = structpb.NewListValue(&structpb.ListValue{Values: ids})
	} else {
		fields[fieldUserID] = structpb.NewStringValue(q.UserID)
	}
	return &structpb.Struct{Fields: fields}
}

// ParseSelectRequest is the server side of SelectRequest.
func ParseSelectRequest(req *structpb.Struct) (SelectQuery, error) {
	table, err := parseTable(req)
	if err != nil {
		return SelectQuery{}, err
	}
	q := SelectQuery{Table: table}

	if table.ScopeColumn() == "estimate_id" {
		for _, v := range req.GetFields()[fieldEstimateIDs].GetListValue().GetValues() {
			if id := v.GetStringValue(); id != "" {
				q.EstimateIDs = append(q.EstimateIDs, id)
			}
		}
		return q, nil
	}

	q.UserID = req.GetFields()[fieldUserID].GetStringValue()
	if q.UserID == "" {
		return SelectQuery{}, fmt.Errorf("%w: missing user_id", ErrInvalidRequest)
	}
	return q, nil
}

// EncodeRows packs records into a ListValue of row structs.
func EncodeRows(recs []models.Record) (*structpb.ListValue, error) {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(recs))}
	for _, r := range recs {
		s, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

// DecodeRows unpacks a Select response.
func DecodeRows(table models.Table, lv *structpb.ListValue) ([]models.Record, error) {
	out := make([]models.Record, 0, len(lv.GetValues()))
	for _, v := range lv.GetValues() {
		rec, err := DecodeRecord(table, v.GetStructValue())
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// PresignMethod selects the HTTP method a presigned photo URL is valid for.
type PresignMethod string

const (
	PresignPut PresignMethod = "put"
	PresignGet PresignMethod = "get"
)

// PresignRequest builds a PresignPhoto request.
func PresignRequest(key string, method PresignMethod) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldKey:    structpb.NewStringValue(key),
		fieldMethod: structpb.NewStringValue(string(method)),
	}}
}

// ParsePresignRequest is the server side of PresignRequest.
func ParsePresignRequest(req *structpb.Struct) (string, PresignMethod, error) {
	key := req.GetFields()[fieldKey].GetStringValue()
	if key == "" {
		return "", "", fmt.Errorf("%w: missing key", ErrInvalidRequest)
	}
	m := PresignMethod(req.GetFields()[fieldMethod].GetStringValue())
	if m != PresignPut && m != PresignGet {
		return "", "", fmt.Errorf("%w: unknown presign method %q", ErrInvalidRequest, string(m))
	}
	return key, m, nil
}

// URLResponse wraps a presigned URL.
func URLResponse(url string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{fieldURL: structpb.NewStringValue(url)}}
}

// ParseURLResponse extracts the URL from a PresignPhoto response.
func ParseURLResponse(resp *structpb.Struct) string {
	return resp.GetFields()[fieldURL].GetStringValue()
}

// StatusResponse is the Ping reply.
func StatusResponse(status string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{fieldStatus: structpb.NewStringValue(status)}}
}

func parseTable(req *structpb.Struct) (models.Table, error) {
	t := models.Table(req.GetFields()[fieldTable].GetStringValue())
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown table %q", ErrInvalidRequest, string(t))
	}
	return t, nil
}
