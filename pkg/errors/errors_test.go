package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("country %q: %w", "Atlantis", ErrUnresolved), http.StatusNotFound},
		{fmt.Errorf("subject Greece: %w", ErrCrawlInProgress), http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{New(ErrInvalidInput, http.StatusUnprocessableEntity, "people"), http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), tt.err.Error())
	}
}
