package dispatch_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/dispatch"
)

// capturedRequest is what the callback endpoint saw.
type capturedRequest struct {
	method      string
	contentType string
	body        string
}

// newCallbackServer records every request and answers with the given status.
func newCallbackServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = append(captured, capturedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestDispatch(t *testing.T) {
	srv, captured := newCallbackServer(t, http.StatusOK)
	d := dispatch.New(srv.Client(), nil)

	payload := `{"target_info":{"date_time":"202601010930","callback":"` + srv.URL + `","method":"POST"},"data":{"order":42}}`

	err := d.Dispatch(context.Background(), []byte(payload))
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "application/json", got.contentType)
	assert.JSONEq(t, `{"order":42}`, got.body)
}

func TestDispatchHonorsMethod(t *testing.T) {
	srv, captured := newCallbackServer(t, http.StatusOK)
	d := dispatch.New(srv.Client(), nil)

	payload := `{"target_info":{"callback":"` + srv.URL + `","method":"PUT"},"data":"ping"}`

	require.NoError(t, d.Dispatch(context.Background(), []byte(payload)))
	require.Len(t, *captured, 1)
	assert.Equal(t, http.MethodPut, (*captured)[0].method)
}

func TestDispatchIgnoresResponseStatus(t *testing.T) {
	// Delivery is fire-and-forget: a failing callback endpoint is not a
	// dispatch error.
	srv, captured := newCallbackServer(t, http.StatusInternalServerError)
	d := dispatch.New(srv.Client(), nil)

	payload := `{"target_info":{"callback":"` + srv.URL + `","method":"POST"},"data":{}}`

	assert.NoError(t, d.Dispatch(context.Background(), []byte(payload)))
	assert.Len(t, *captured, 1)
}

func TestDispatchRejectsBadPayloads(t *testing.T) {
	d := dispatch.New(nil, nil)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "Should reject non-JSON input", payload: "not json"},
		{name: "Should reject a missing callback", payload: `{"target_info":{"method":"POST"},"data":{}}`},
		{name: "Should reject a missing method", payload: `{"target_info":{"callback":"https://example.com"},"data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, d.Dispatch(context.Background(), []byte(tt.payload)))
		})
	}
}

func TestDispatchUnreachableEndpoint(t *testing.T) {
	d := dispatch.New(nil, nil)

	payload := `{"target_info":{"callback":"http://127.0.0.1:1","method":"POST"},"data":{}}`
	assert.Error(t, d.Dispatch(context.Background(), []byte(payload)))
}
