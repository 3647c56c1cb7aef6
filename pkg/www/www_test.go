package www

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

func TestHandlePanics(t *testing.T) {
	router := httprouter.New()
	log := logs.NewTestingLog(t)
	Handle(log, router, "GET", "/bad", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		PanicBadRequestf("x must be %v", 5)
	})
	Handle(log, router, "GET", "/empty", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		PanicNoContent()
	})
	Handle(log, router, "GET", "/err", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		Check(errors.New("disk on fire"))
	})
	Handle(log, router, "GET", "/nil", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var m map[string]int
		m["a"] = 1
	})
	Handle(log, router, "GET", "/ok", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		SendJSON(w, map[string]int{"x": QueryInt(r, "x")})
	})

	get := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		body, _ := io.ReadAll(rec.Body)
		return rec.Code, string(body)
	}

	code, body := get("/bad")
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "x must be 5", body)

	code, body = get("/empty")
	require.Equal(t, http.StatusNoContent, code)
	require.Equal(t, "", body)

	code, body = get("/err")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "disk on fire", body)

	code, _ = get("/nil")
	require.Equal(t, http.StatusInternalServerError, code)

	code, body = get("/ok?x=12")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, `{"x":12}`, body)

	code, body = get("/ok?x=abc")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, `{"x":0}`, body)
}

func TestHTTPError(t *testing.T) {
	require.Equal(t, "404 Not Found", HTTPError{http.StatusNotFound, "Not Found"}.Error())
	require.PanicsWithValue(t, HTTPError{http.StatusNotFound, "Not Found"}, PanicNotFound)
	require.NotPanics(t, func() { Check(nil) })
}
