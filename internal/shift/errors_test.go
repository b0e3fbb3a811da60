package shift

import (
	"errors"
	"fmt"
	"testing"

	"cashdesk-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{invalid("bad"), fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", conflict("busy")), fiber.StatusConflict},
		{notFound("gone"), fiber.StatusNotFound},
	}
	for _, tc := range cases {
		var fe *fiber.Error
		assert.True(t, errors.As(httpError(tc.err), &fe))
		assert.Equal(t, tc.code, fe.Code)
	}

	plain := errors.New("db down")
	assert.Same(t, plain, httpError(plain))
}

func TestExclusivityKeys(t *testing.T) {
	reg := uint(4)
	all := []string{config.ScopeOperator, config.ScopeRegister, config.ScopeBranch}

	keys := exclusivityKeys(all, 2, 9, &reg)
	var got []string
	for _, k := range keys {
		got = append(got, k.key)
	}
	assert.Equal(t, []string{"operator:9", "branch:2:register:4", "branch:2"}, got)

	keys = exclusivityKeys(all, 2, 9, nil)
	assert.Len(t, keys, 2, "no register, no register key")
	assert.Equal(t, "operator", keys[0].describe())
	assert.Equal(t, "branch", keys[1].describe())
}
