package common

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSONResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       any
		status     int
		wantStatus int
		wantBody   string
	}{
		{
			name:       "status object",
			data:       map[string]int{"inserted": 3},
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantBody:   `{"inserted":3}`,
		},
		{
			name:       "error response",
			data:       ErrorResponse{Error: "A sync cycle is already running"},
			status:     http.StatusConflict,
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"A sync cycle is already running"}`,
		},
		{
			name:       "unencodable value",
			data:       map[string]any{"ch": make(chan int)},
			status:     http.StatusOK,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteJSONResponse(rec, tt.data, tt.status)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			if tt.wantStatus == tt.status {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
			}
		})
	}
}

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, "X-Subscriber-ID cannot be empty", http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"X-Subscriber-ID cannot be empty"}`, rec.Body.String())
}
