// AngelaMos | 2026
// core_test.go

package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) core.Response {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSONError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", core.NotFoundError("order"), http.StatusNotFound, "NOT_FOUND"},
		{"access denied", core.AccessDeniedError("kit_no_course_access", "no"), http.StatusForbidden, "kit_no_course_access"},
		{"rate limited", core.RateLimitedError(30), http.StatusTooManyRequests, "RATE_LIMITED"},
		{"wrapped app error", fmt.Errorf("outer: %w", core.InvalidStateError("already rejected")), http.StatusConflict, "INVALID_STATE"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			core.JSONError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantBody, body.Error.Code)
		})
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	assert.ErrorIs(t, core.NotFoundError("course"), core.ErrNotFound)
	assert.ErrorIs(t, core.RateLimitedError(1), core.ErrRateLimited)
	assert.ErrorIs(t, core.AccessDeniedError("x", "y"), core.ErrForbidden)
	assert.True(t, core.IsAppError(fmt.Errorf("wrap: %w", core.TokenExpiredError())))
	assert.False(t, core.IsAppError(core.ErrNotFound))
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	core.Paginated(rec, []int{1, 2}, 2, 10, 21)

	body := decode(t, rec)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.True(t, body.Success)
}

func TestFormatValidationError(t *testing.T) {
	type req struct {
		Email    string `validate:"required,email"`
		Duration string `validate:"oneof=1-month lifetime"`
	}

	err := validator.New().Struct(req{Email: "nope", Duration: "weekly"})
	msg := core.FormatValidationError(err)

	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "duration must be one of [1-month lifetime]")
	assert.Equal(t, "invalid request", core.FormatValidationError(errors.New("x")))
}

func cheapHasher(t *testing.T, memory uint32) *core.PasswordHasher {
	t.Helper()
	h, err := core.NewPasswordHasher(core.ArgonParams{Memory: memory, Threads: 1})
	require.NoError(t, err)
	return h
}

func TestPasswordHasher(t *testing.T) {
	h := cheapHasher(t, 8*1024)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, rehash, err := h.Verify("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	ok, _, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _, err = h.VerifyKnown("anything", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = h.Verify("s3cret-pass", "$bcrypt$nope")
	require.ErrorIs(t, err, core.ErrMalformedHash)
}

func TestPasswordHasher_RehashesOnPolicyChange(t *testing.T) {
	old := cheapHasher(t, 8*1024)
	stronger := cheapHasher(t, 16*1024)

	hash, err := old.Hash("s3cret-pass")
	require.NoError(t, err)

	ok, rehash, err := stronger.Verify("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)
	assert.Contains(t, rehash, "m=16384")

	ok, rehash, err = stronger.Verify("s3cret-pass", rehash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	assert.Equal(t, core.DefaultArgonParams.KeyLen, stronger.Params().KeyLen)
}

func TestArgonParamsFrom(t *testing.T) {
	p := core.ArgonParamsFrom(config.PasswordConfig{MemoryKiB: 19456, Iterations: 2, Parallelism: 1})

	h, err := core.NewPasswordHasher(p)
	require.NoError(t, err)

	got := h.Params()
	assert.Equal(t, uint32(19456), got.Memory)
	assert.Equal(t, uint32(2), got.Time)
	assert.Equal(t, uint8(1), got.Threads)
	assert.Equal(t, core.DefaultArgonParams.SaltLen, got.SaltLen)
}

func TestNoTxRunsInline(t *testing.T) {
	boom := errors.New("boom")
	called := false

	err := core.NoTx{}.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return boom
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, boom)
}
