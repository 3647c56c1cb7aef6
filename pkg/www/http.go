package www

import (
	"encoding/json"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"

	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"
)

// RunProtected runs 'handler' inside a panic handler that recognizes HTTPError,
// and sends the appropriate HTTP response if a panic does occur.
func RunProtected(log logs.Log, w http.ResponseWriter, r *http.Request, handler func()) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		switch e := rec.(type) {
		case HTTPError:
			sendHTTPError(log, w, r, &e)
		case *HTTPError:
			sendHTTPError(log, w, r, e)
		case runtime.Error:
			log.Errorf("Runtime panic %v: %v", r.URL.Path, e)
			log.Errorf("Stack Trace: %v", string(debug.Stack()))
			SendError(w, e.Error(), http.StatusInternalServerError)
		case error:
			log.Errorf("Panic error %v: %v", r.URL.Path, e)
			SendError(w, e.Error(), http.StatusInternalServerError)
		case string:
			log.Errorf("Panic string %v: %v", r.URL.Path, e)
			SendError(w, e, http.StatusInternalServerError)
		default:
			log.Errorf("Unrecognized panic %v: %v", r.URL.Path, rec)
			SendError(w, "Unrecognized panic", http.StatusInternalServerError)
		}
	}()

	handler()
}

func sendHTTPError(log logs.Log, w http.ResponseWriter, r *http.Request, e *HTTPError) {
	if e.Code == http.StatusNoContent {
		w.WriteHeader(e.Code)
		return
	}
	log.Infof("Failed request %v: %v %v", r.URL.Path, e.Code, e.Message)
	SendError(w, e.Message, e.Code)
}

// Handle adds a protected HTTP route to router (ie handle will run inside RunProtected, so you get a panic handler).
func Handle(log logs.Log, router *httprouter.Router, method, path string, handle httprouter.Handle) {
	wrapper := func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		RunProtected(log, w, r, func() { handle(w, r, p) })
	}
	router.Handle(method, path, wrapper)
}

// QueryInt returns the named query value as an int, or zero if the item is missing or not parseable as an integer
func QueryInt(r *http.Request, key string) int {
	i, _ := strconv.Atoi(r.URL.Query().Get(key))
	return i
}

// SendError is identical to the standard library http.Error(), except that we don't append a \n to the message body
func SendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write([]byte(message))
}

// SendJSON encodes 'obj' to JSON, and sends it as an HTTP application/json response.
func SendJSON(w http.ResponseWriter, obj any) {
	SendJSONOpt(w, obj, false)
}

func SendJSONOpt(w http.ResponseWriter, obj any, pretty bool) {
	w.Header().Set("Content-Type", "application/json")
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(obj, "", "\t")
	} else {
		b, err = json.Marshal(obj)
	}
	Check(err)
	w.Write(b)
}

// CacheNever sets cache headers instructing the client never to cache
func CacheNever(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}
