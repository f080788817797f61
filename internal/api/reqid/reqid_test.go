package reqid

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, FromRequest(r))

	r.Header.Set(Header, "hdr")
	assert.Equal(t, "hdr", FromRequest(r))

	r = r.WithContext(NewContext(r.Context(), "ctx"))
	assert.Equal(t, "ctx", FromRequest(r), "context wins over header")
}
