// Copyright (c) 2020 anatolygudkov. All rights reserved.
// Use of this source code is governed by MIT license
// that can be found in the LICENSE file.
package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRouteBindsPathValue(t *testing.T) {
	srv := NewSrv(":0")
	srv.Get("/counter/{id}", func(v *Values, res http.ResponseWriter, req *http.Request) error {
		id, err := v.Int("id")
		if err != nil {
			return err
		}
		res.WriteHeader(http.StatusOK)
		_, _ = res.Write([]byte{byte(id)})
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/counter/42", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte{42}, rec.Body.Bytes())
}

func TestHandlerErrorBecomes500(t *testing.T) {
	srv := NewSrv(":0")
	srv.Get("/boom", func(v *Values, res http.ResponseWriter, req *http.Request) error {
		return assertError("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWrongMethodIsNotRouted(t *testing.T) {
	srv := NewSrv(":0")
	srv.Get("/counters", func(v *Values, res http.ResponseWriter, req *http.Request) error {
		res.WriteHeader(http.StatusOK)
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/counters", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestValuesHasAndString(t *testing.T) {
	srv := NewSrv(":0")
	var captured *Values
	srv.Get("/label/{name}", func(v *Values, res http.ResponseWriter, req *http.Request) error {
		captured = v
		res.WriteHeader(http.StatusOK)
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/label/throughput", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.NotNil(t, captured)
	assert.True(t, captured.Has("name"))
	assert.Equal(t, "throughput", captured.String("name"))
	assert.False(t, captured.Has("missing"))
}

type assertError string

func (e assertError) Error() string { return string(e) }
