package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/mailtester/logger"
)

func init() {
	logger.InitDefault(logger.Config{
		Provider: logger.ProviderNoop,
		Level:    logger.INFO,
	})
}

func TestMonitoring_PassesRequestThrough(t *testing.T) {
	body := `{"toEmail":"a@b.com","html":"` + strings.Repeat("x", 3*BodyMaxLen) + `"}`

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, logger.FromContext(r.Context()))
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})

	rr := httptest.NewRecorder()
	Monitoring(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/sendmail?x=1", strings.NewReader(body)))

	assert.Equal(t, body, seen, "handler must see the complete body")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "created", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Trace-Id"))
}

func TestMonitoring_ImplicitOK(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	Monitoring(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestStatefulRespWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	w := newStatefulRespWriter(rr)

	_, err := w.Write([]byte(strings.Repeat("a", BodyMaxLen)))
	require.NoError(t, err)
	_, err = w.Write([]byte("tail"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.status)
	assert.Len(t, w.body, BodyMaxLen)
	assert.Equal(t, BodyMaxLen+4, w.size)
	assert.Equal(t, BodyMaxLen+4, rr.Body.Len())
}

func TestCutSized(t *testing.T) {
	assert.Equal(t, "short", cutSized([]byte("short"), 5))
	assert.Equal(t, "", cutSized(nil, 0))

	long := []byte(strings.Repeat("b", BodyMaxLen))
	assert.Equal(t, string(long)+"...(5000 bytes)", cutSized(long, 5000))
}
