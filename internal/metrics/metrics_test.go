package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/cubby"
	"github.com/zoobzio/cubby/cubbytest"
	"github.com/zoobzio/cubby/memory"
)

func TestRecorder_CountsOutcomes(t *testing.T) {
	r := New()
	r.Listen()

	fx := cubbytest.NewFixture()
	ctx := context.Background()

	_, err := fx.Drive.Upload(ctx, "a.txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	_, err = fx.Drive.Upload(ctx, "b.txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	_, err = fx.Drive.Stat(ctx, "missing.txt")
	require.Error(t, err)

	fx.Provider.FailOn(memory.OpDelete, "a.txt", errors.New("denied"))
	_, err = fx.Drive.Rename(ctx, "a.txt", "c.txt")
	require.ErrorIs(t, err, cubby.ErrDuplicateObject)

	r.Close(ctx)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("upload", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("stat", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("rename", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("duplicate", OutcomeDuplicate)))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.operations.WithLabelValues("list", OutcomeSuccess).Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `cubby_operations_total{operation="list",outcome="success"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRecorder_CloseStopsCounting(t *testing.T) {
	r := New()
	r.Listen()
	r.Close(context.Background())

	fx := cubbytest.NewFixture()
	_, err := fx.Drive.CreateFolder(context.Background(), "docs")
	require.NoError(t, err)

	assert.Equal(t, 0.0, testutil.ToFloat64(r.operations.WithLabelValues("create_folder", OutcomeSuccess)))
}
