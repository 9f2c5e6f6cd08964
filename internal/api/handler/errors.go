package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/seabattle/internal/api/apierr"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// intVar reads a positive integer path variable
func intVar(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apierr.NewInvalidRequestError("invalid " + name + ": " + raw)
	}
	return v, nil
}
