package httpapi_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-menu-service/internal/httpapi"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrCustomerNameRequired, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", model.ErrProductSizeDuplicate, "M"), http.StatusBadRequest},
		{model.ErrOrderNotFound, http.StatusNotFound},
		{model.ErrCategoryExists, http.StatusConflict},
		{model.ErrCategoryInUse, http.StatusConflict},
		{model.ErrReopenNotConfirmed, http.StatusPreconditionRequired},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, httpapi.StatusFor(tc.err), tc.err.Error())
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	httpapi.Fail(rec, errors.New("postgres: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	httpapi.Fail(rec, model.ErrTableRequired)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"table is required"}`, rec.Body.String())
}

func TestDecodeMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var v map[string]any
	require.ErrorIs(t, httpapi.Decode(req, &v), model.ErrValidation)
}

func TestSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := httpapi.SessionID(req)
	require.ErrorIs(t, err, model.ErrSessionRequired)

	req.Header.Set(httpapi.SessionHeader, "  ")
	_, err = httpapi.SessionID(req)
	require.ErrorIs(t, err, model.ErrValidation)

	req.Header.Set(httpapi.SessionHeader, "tab-1")
	id, err := httpapi.SessionID(req)
	require.NoError(t, err)
	require.Equal(t, "tab-1", id)
}

func TestHealthz(t *testing.T) {
	r := httpapi.NewRouter(logger.NewNop())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
