package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "unique violation maps to conflict",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			want: http.StatusConflict,
		},
		{
			name: "wrapped unique violation maps to conflict",
			err:  fmt.Errorf("failed to insert pipeline: %w", &pgconn.PgError{Code: "23505"}),
			want: http.StatusConflict,
		},
		{
			name: "no rows maps to not found",
			err:  pgx.ErrNoRows,
			want: http.StatusNotFound,
		},
		{
			name: "other pg errors pass through",
			err:  &pgconn.PgError{Code: "23503", Message: "foreign key violation"},
			want: http.StatusInternalServerError,
		},
		{
			name: "plain errors pass through",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, http.StatusInternalServerError, tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Contains(t, payload["error"], tt.err.Error())
		})
	}
}
