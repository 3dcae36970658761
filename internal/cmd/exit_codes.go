package cmd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/pflag"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/config"
)

const (
	exitOK        = 0
	exitGeneric   = 1
	exitUsage     = 2
	exitAuth      = 3
	exitNotFound  = 4
	exitForbidden = 5
	exitServer    = 7
	exitNetwork   = 8
	exitCancelled = 130
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if e, ok := api.AsError(err); ok {
		return exitCodeForCategory(e)
	}
	if errors.Is(err, config.ErrNotConfigured) || isUsageError(err) {
		return exitUsage
	}
	return exitGeneric
}

func exitCodeForCategory(e *api.Error) int {
	switch e.Category {
	case api.CategoryAuth:
		return exitAuth
	case api.CategoryClient:
		switch e.StatusCode {
		case http.StatusNotFound:
			return exitNotFound
		case http.StatusForbidden:
			return exitForbidden
		}
		return exitUsage
	case api.CategoryServer:
		return exitServer
	case api.CategoryNetwork:
		return exitNetwork
	case api.CategoryCancelled:
		return exitCancelled
	default:
		return exitGeneric
	}
}

func isUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	indicators := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"required flag",
		"accepts ",
		"requires at least",
		"requires exactly",
		"invalid argument",
		"invalid ",
		"must be",
		"is required",
		"are required",
		"conflicts with",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
