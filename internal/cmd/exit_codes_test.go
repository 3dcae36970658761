package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/config"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, exitOK},
		{"help", pflag.ErrHelp, exitOK},
		{"auth", &api.Error{Category: api.CategoryAuth, Message: "Session expired. Please log in again."}, exitAuth},
		{"not found", &api.Error{Category: api.CategoryClient, StatusCode: 404}, exitNotFound},
		{"forbidden", &api.Error{Category: api.CategoryClient, StatusCode: 403}, exitForbidden},
		{"bad request", &api.Error{Category: api.CategoryClient, StatusCode: 400}, exitUsage},
		{"local validation", &api.Error{Category: api.CategoryClient, Message: "Amount is required"}, exitUsage},
		{"server", &api.Error{Category: api.CategoryServer, StatusCode: 502}, exitServer},
		{"network", &api.Error{Category: api.CategoryNetwork}, exitNetwork},
		{"cancelled", &api.Error{Category: api.CategoryCancelled}, exitCancelled},
		{"unknown category", &api.Error{Category: api.CategoryUnknown}, exitGeneric},
		{"wrapped api error", fmt.Errorf("listing: %w", &api.Error{Category: api.CategoryServer}), exitServer},
		{"not configured", config.ErrNotConfigured, exitUsage},
		{"usage", errors.New(`unknown command "nope" for "rp"`), exitUsage},
		{"usage shorthand", errors.New("unknown shorthand flag: 'a' in -a"), exitUsage},
		{"required flag", errors.New(`required flag(s) "amount" not set`), exitUsage},
		{"generic", errors.New("boom"), exitGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, ExitCode(tc.err))
		})
	}
}

func TestExitCode_HandledErrorUsesStoredCode(t *testing.T) {
	err := &handledError{err: errors.New("wrapped"), exitCode: exitNotFound}
	assert.Equal(t, exitNotFound, ExitCode(err))
	assert.ErrorIs(t, err, errAlreadyHandled)
}

func TestExitCode_HandledErrorWithoutCodeFallsBack(t *testing.T) {
	err := &handledError{err: &api.Error{Category: api.CategoryAuth}}
	assert.Equal(t, exitAuth, ExitCode(err))
}
