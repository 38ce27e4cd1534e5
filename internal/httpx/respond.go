package httpx

import (
	"encoding/json"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"log"
	"net/http"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Available is present on INSUFFICIENT_STOCK: how many units the
	// request could still obtain.
	Available *int `json:"available,omitempty"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, v any) {
	writeJSON(w, code, envelope{Success: true, Data: v})
}

// writeError maps the failure taxonomy onto HTTP statuses. Business
// failures keep their structured kind and message; anything internal is
// logged with its cause and reported opaquely.
func writeError(w http.ResponseWriter, err error) {
	oe := preorder.AsOpError(err)
	if oe == nil {
		log.Printf("unclassified error: %v", err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Error:   &errorBody{Kind: preorder.KindInternal.String(), Message: "internal error"},
		})
		return
	}

	body := &errorBody{Kind: oe.Kind.String(), Message: oe.Message}
	var code int
	switch oe.Kind {
	case preorder.KindNotFound, preorder.KindItemNotFound:
		code = http.StatusNotFound
	case preorder.KindInsufficientStock:
		code = http.StatusConflict
		avail := oe.Available
		body.Available = &avail
	case preorder.KindEmptyCart:
		code = http.StatusConflict
	case preorder.KindUnauthorized:
		code = http.StatusForbidden
	case preorder.KindInvalidArgument:
		code = http.StatusBadRequest
	case preorder.KindTransient:
		code = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	default:
		code = http.StatusInternalServerError
		log.Printf("internal error: %v", err)
		body.Message = "internal error"
	}
	writeJSON(w, code, envelope{Success: false, Error: body})
}

func badRequest(msg string) error {
	return &preorder.OpError{Kind: preorder.KindInvalidArgument, Message: msg}
}

func writeAuthError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{
		Success: false,
		Error:   &errorBody{Kind: preorder.KindUnauthorized.String(), Message: msg},
	})
}
