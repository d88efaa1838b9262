package sdk

import (
	"context"
	"encoding/json"
	"fmt"
)

// Call dispatches a request and decodes the whole payload into T.
// It is the typed counterpart of Requester.Request, for endpoints the
// domain services do not cover.
//
// Example:
//
//	courses, err := sdk.Call[[]sdk.Course](ctx, client, "/courses", http.MethodGet, nil)
func Call[T any](ctx context.Context, r Requester, endpoint, method string, body interface{}, opts ...RequestOption) (T, error) {
	var zero T
	raw, err := request(ctx, r, endpoint, method, body, opts...)
	if err != nil {
		return zero, err
	}
	var out T
	if err := deserialize(raw, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// CallData is like Call but decodes the "data" member when the payload is a
// mock acknowledgement envelope.
func CallData[T any](ctx context.Context, r Requester, endpoint, method string, body interface{}, opts ...RequestOption) (T, error) {
	var zero T
	raw, err := request(ctx, r, endpoint, method, body, opts...)
	if err != nil {
		return zero, err
	}
	var out T
	if err := deserialize(unwrapData(raw), &out); err != nil {
		return zero, err
	}
	return out, nil
}

// CallRecord fetches endpoint and decodes the record with the given id. The
// payload may be the record itself or a collection containing it.
func CallRecord[T any](ctx context.Context, r Requester, endpoint, id string, opts ...RequestOption) (T, error) {
	var zero T
	raw, err := request(ctx, r, endpoint, "", nil, opts...)
	if err != nil {
		return zero, err
	}
	record, err := selectRecord(unwrapData(raw), id)
	if err != nil {
		return zero, err
	}
	var out T
	if err := deserialize(record, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// request is Requester.Request with the error fixture turned into ErrNotFound.
func request(ctx context.Context, r Requester, endpoint, method string, body interface{}, opts ...RequestOption) (json.RawMessage, error) {
	raw, err := r.Request(ctx, endpoint, method, body, opts...)
	if err != nil {
		return nil, err
	}
	if IsErrorFixture(raw) {
		return nil, NewErrorWithCode(ErrorTypeClient, "NOT_FOUND", fmt.Sprintf("no fixture for %s", endpoint), ErrNotFound).
			WithContext(&ErrorContext{Method: method, Endpoint: endpoint})
	}
	return raw, nil
}
