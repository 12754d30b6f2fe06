package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// Status tags the outcome of a request. Every status maps to exactly one
// HTTP code via HTTPCode.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusCreated         Status = "created"
	StatusUpdated         Status = "updated"
	StatusDeleted         Status = "deleted"
	StatusError           Status = "error"
	StatusValidationError Status = "validation_error"
	StatusUnauthorized    Status = "unauthorized"
	StatusForbidden       Status = "forbidden"
	StatusNotFound        Status = "not_found"
	StatusServerError     Status = "server_error"
	StatusBadRequest      Status = "bad_request"
	StatusTooManyRequests Status = "too_many_requests"
)

var httpCodes = map[Status]int{
	StatusSuccess:         http.StatusOK,
	StatusCreated:         http.StatusCreated,
	StatusUpdated:         http.StatusOK,
	StatusDeleted:         http.StatusOK,
	StatusError:           http.StatusBadRequest,
	StatusValidationError: http.StatusUnprocessableEntity,
	StatusUnauthorized:    http.StatusUnauthorized,
	StatusForbidden:       http.StatusForbidden,
	StatusNotFound:        http.StatusNotFound,
	StatusServerError:     http.StatusInternalServerError,
	StatusBadRequest:      http.StatusBadRequest,
	StatusTooManyRequests: http.StatusTooManyRequests,
}

// HTTPCode returns the HTTP status code for the tag. Unknown tags fall back
// to the generic error code (400), matching the error status itself.
func (s Status) HTTPCode() int {
	if code, ok := httpCodes[s]; ok {
		return code
	}
	return http.StatusBadRequest
}

// Envelope is the uniform JSON body every endpoint returns. Status, message
// and timestamp are always present; the rest appear only when set.
type Envelope struct {
	Status     Status              `json:"status"`
	Message    string              `json:"message"`
	Timestamp  string              `json:"timestamp"`
	Data       any                 `json:"data,omitempty"`
	Meta       map[string]any      `json:"meta,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

// Builder accumulates envelope fields and finalizes them once. A builder is
// single-use: mutate, then Build or Write, then discard.
type Builder struct {
	status     Status
	message    string
	data       any
	hasData    bool
	meta       map[string]any
	pagination *Pagination
	errors     map[string][]string
}

func New(status Status) *Builder {
	return &Builder{status: status}
}

func (b *Builder) Message(msg string) *Builder {
	b.message = msg
	return b
}

func (b *Builder) Data(v any) *Builder {
	b.data = v
	b.hasData = true
	return b
}

// Meta adds one key to the meta map. Repeated calls merge; later values win
// on key collision.
func (b *Builder) Meta(key string, v any) *Builder {
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = v
	return b
}

func (b *Builder) Errors(errs map[string][]string) *Builder {
	if len(errs) > 0 {
		b.errors = errs
	}
	return b
}

// Page attaches a pagination summary. If no data was set explicitly, the
// paginator's items become the data.
func (b *Builder) Page(p *Paginator) *Builder {
	if p == nil {
		return b
	}
	b.pagination = p.summary()
	if !b.hasData {
		b.data = p.Items
		b.hasData = true
	}
	return b
}

// Build finalizes the envelope and returns it with its HTTP status code.
// The timestamp is generated here, in UTC.
func (b *Builder) Build() (*Envelope, int) {
	msg := b.message
	if msg == "" {
		msg = defaultMessage(b.status)
	}
	env := &Envelope{
		Status:     b.status,
		Message:    msg,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Meta:       b.meta,
		Pagination: b.pagination,
		Errors:     b.errors,
	}
	if b.hasData {
		env.Data = b.data
	}
	return env, b.status.HTTPCode()
}

// Write finalizes the envelope and writes it as the response body.
func (b *Builder) Write(w http.ResponseWriter) {
	env, code := b.Build()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}
