package cdp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotImplemented is returned for every protocol method without a concrete
// implementation.
var ErrNotImplemented = errors.New("not implemented")

// Request is one parsed protocol command from the frontend.
type Request struct {
	ID     int64
	Method string
	Params gjson.Result
}

// HandlerFunc executes one protocol method. The returned value is serialized
// as the response result; a nil value produces an empty result object. An
// error produces an error response instead.
type HandlerFunc func(req *Request) (any, error)

// FrontendChannel delivers responses and notifications toward the transport.
type FrontendChannel interface {
	// SendResponse delivers a successful method response.
	SendResponse(id int64, result any)

	// SendFailure delivers an error response for a method call.
	SendFailure(id int64, err error)

	// SendNotification delivers a protocol event.
	SendNotification(method string, params any)

	// FlushNotifications flushes buffered notifications, if any.
	FlushNotifications()
}

// Dispatcher routes "Domain.method" protocol commands to registered
// handlers. Methods without a handler answer "not implemented".
type Dispatcher struct {
	frontend FrontendChannel
	handlers map[string]HandlerFunc
}

// NewDispatcher creates a dispatcher that answers through frontend.
func NewDispatcher(frontend FrontendChannel) *Dispatcher {
	return &Dispatcher{
		frontend: frontend,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register installs a handler for a fully qualified method name.
func (d *Dispatcher) Register(method string, fn HandlerFunc) {
	d.handlers[method] = fn
}

// Unregister removes every handler belonging to the given domain.
func (d *Dispatcher) Unregister(domain string) {
	prefix := domain + "."
	for method := range d.handlers {
		if len(method) > len(prefix) && method[:len(prefix)] == prefix {
			delete(d.handlers, method)
		}
	}
}

// Dispatch parses one raw protocol message and routes it. A message that is
// not valid JSON or carries no method fails only that message: an error
// response is sent when an id is recoverable, otherwise the message is
// dropped.
func (d *Dispatcher) Dispatch(raw string) {
	if !gjson.Valid(raw) {
		return
	}

	parsed := gjson.Parse(raw)
	id := parsed.Get("id").Int()
	method := parsed.Get("method").String()

	if method == "" {
		if parsed.Get("id").Exists() {
			d.frontend.SendFailure(id, fmt.Errorf("no method specified"))
		}
		return
	}

	fn, ok := d.handlers[method]
	if !ok {
		d.frontend.SendFailure(id, ErrNotImplemented)
		return
	}

	result, err := fn(&Request{ID: id, Method: method, Params: parsed.Get("params")})
	if err != nil {
		d.frontend.SendFailure(id, err)
		return
	}
	d.frontend.SendResponse(id, result)
}

// Wire messages exchanged with the frontend.

type responseMessage struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

type errorMessage struct {
	ID    int64         `json:"id"`
	Error responseError `json:"error"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notificationMessage struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// The protocol's generic server-error code.
const serverErrorCode = -32000

// MarshalResponse encodes a successful response frame. A nil result encodes
// as an empty result object.
func MarshalResponse(id int64, result any) ([]byte, error) {
	if result == nil {
		result = struct{}{}
	}
	return json.Marshal(responseMessage{ID: id, Result: result})
}

// MarshalFailure encodes an error response frame.
func MarshalFailure(id int64, err error) ([]byte, error) {
	return json.Marshal(errorMessage{
		ID:    id,
		Error: responseError{Code: serverErrorCode, Message: err.Error()},
	})
}

// MarshalNotification encodes an event frame. nil params encode as an empty
// object.
func MarshalNotification(method string, params any) ([]byte, error) {
	if params == nil {
		params = struct{}{}
	}
	return json.Marshal(notificationMessage{Method: method, Params: params})
}
