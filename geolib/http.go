package geolib

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"
)

var handleTrackRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "required": [
            "ips"
        ],
        "additionalProperties": false,
        "properties": {
            "ips": {
                "type": "array",
                "minItems": 1,
                "items": {
                    "type": "string",
                    "minLength": 7,
                    "maxLength": 15
                }
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

type handleTrackRequest struct {
	IPs []string `json:"ips"`
}

type httpHandler struct {
	orchestrator *Orchestrator
}

func (h httpHandler) handleSelf(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		h.sendError(w, nil, "This HTTP method is not allowed", http.StatusMethodNotAllowed)

		return
	}

	// proxy middlewares may set a bare address without port
	host := req.RemoteAddr
	if value, _, err := net.SplitHostPort(host); err == nil {
		host = value
	}

	h.resolve(w, req, host, "")
}

func (h httpHandler) handleResolve(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		h.sendError(w, nil, "This HTTP method is not allowed", http.StatusMethodNotAllowed)

		return
	}

	h.resolve(w, req, req.URL.Query().Get("ip"), req.URL.Query().Get("provider"))
}

func (h httpHandler) resolve(w http.ResponseWriter, req *http.Request, ip, provider string) {
	var (
		result interface{}
		ok     bool
		err    error
	)

	if provider != "" {
		result, ok, err = h.orchestrator.ResolveSingle(req.Context(), ip, provider)
	} else {
		result, ok, err = h.orchestrator.ResolveMulti(req.Context(), ip)
	}

	var e *httpError

	switch {
	case errors.Is(err, ErrInvalidQuery):
		e = &httpError{message: "Incorrect IP address", err: err, statusCode: http.StatusBadRequest}
	case err != nil:
		e = &httpError{message: "Cannot resolve IP address", err: err}
	case !ok:
		e = &httpError{
			message:    "Cannot resolve IP address",
			err:        ErrNoProvidersSucceeded,
			statusCode: http.StatusServiceUnavailable,
		}
	}

	if e != nil {
		e.query = ip
		e.provider = provider

		writeHTTPError(w, e)

		return
	}

	h.encodeJSON(w, struct {
		Result interface{} `json:"result"`
	}{
		Result: result,
	})
}

func (h httpHandler) handleTrack(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		h.sendError(w, nil, "This HTTP method is not allowed", http.StatusMethodNotAllowed)

		return
	}

	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return
	}

	bodyBytes, err := io.ReadAll(req.Body)

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return
	}

	errs, err := handleTrackRequestJSONSchema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot validate body", http.StatusBadRequest)

		return
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], "Invalid request body", http.StatusBadRequest)

		return
	}

	parsedRequest := &handleTrackRequest{}
	if err := json.Unmarshal(bodyBytes, parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	results, err := h.orchestrator.TrackAll(req.Context(), parsedRequest.IPs)
	if err != nil {
		h.sendError(w, err, "Cannot track given IPs", 0)

		return
	}

	h.encodeJSON(w, struct {
		Results []ReconciledResult `json:"results"`
	}{
		Results: results,
	})
}

func (h httpHandler) handleStats(w http.ResponseWriter, _ *http.Request) {
	h.encodeJSON(w, struct {
		Stats []*UsageStats `json:"stats"`
	}{
		Stats: h.orchestrator.UsageStats(),
	})
}

func (h httpHandler) handleHistory(w http.ResponseWriter, _ *http.Request) {
	h.encodeJSON(w, struct {
		Results []ReconciledResult `json:"results"`
	}{
		Results: h.orchestrator.History(),
	})
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, data)
}

func (h httpHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	WriteError(w, err, message, statusCode)
}

// WriteJSON responds with JSON encoded data. Data which cannot be
// encoded turns into 500 error.
func WriteJSON(w http.ResponseWriter, data interface{}) {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)

	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(data); err != nil {
		if _, ok := data.(*httpError); !ok {
			WriteError(w, err, "Cannot encode response", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes()) // nolint: errcheck
}

// WriteError responds with an error envelope
// {"error": {"message": ..., "context": ...}}. Errors of lookups also
// carry query and provider fields.
func WriteError(w http.ResponseWriter, err error, message string, statusCode int) {
	writeHTTPError(w, &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	})
}

func writeHTTPError(w http.ResponseWriter, e *httpError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	WriteJSON(w, e)
}

// NewHTTPHandler exposes orchestrator as JSON API:
//
//	GET  /          - resolve an address of the caller
//	GET  /resolve   - resolve ?ip=, optionally with a single ?provider=
//	POST /track     - track {"ips": [...]}
//	GET  /stats     - usage statistics of providers
//	GET  /history   - results tracked by this instance
func NewHTTPHandler(orchestrator *Orchestrator) http.Handler {
	handler := httpHandler{
		orchestrator: orchestrator,
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/", handler.handleSelf)
	mux.HandleFunc("/resolve", handler.handleResolve)
	mux.HandleFunc("/track", handler.handleTrack)
	mux.HandleFunc("/stats", handler.handleStats)
	mux.HandleFunc("/history", handler.handleHistory)

	return mux
}
