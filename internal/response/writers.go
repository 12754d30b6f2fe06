package response

import "net/http"

// Convenience writers used as the terminal call in handlers.

func Success(w http.ResponseWriter, data any) {
	New(StatusSuccess).Data(data).Write(w)
}

func Created(w http.ResponseWriter, data any) {
	New(StatusCreated).Data(data).Write(w)
}

func Updated(w http.ResponseWriter, data any) {
	New(StatusUpdated).Data(data).Write(w)
}

func Deleted(w http.ResponseWriter) {
	New(StatusDeleted).Write(w)
}

func Error(w http.ResponseWriter, msg string) {
	New(StatusError).Message(msg).Write(w)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	New(StatusUnauthorized).Message(msg).Write(w)
}

func Forbidden(w http.ResponseWriter, msg string) {
	New(StatusForbidden).Message(msg).Write(w)
}

func NotFound(w http.ResponseWriter, msg string) {
	New(StatusNotFound).Message(msg).Write(w)
}

func BadRequest(w http.ResponseWriter, msg string) {
	New(StatusBadRequest).Message(msg).Write(w)
}

func ValidationError(w http.ResponseWriter, errs map[string][]string) {
	New(StatusValidationError).Errors(errs).Write(w)
}

func TooManyRequests(w http.ResponseWriter, msg string) {
	New(StatusTooManyRequests).Message(msg).Write(w)
}

func Paginated(w http.ResponseWriter, p *Paginator) {
	New(StatusSuccess).Page(p).Write(w)
}
