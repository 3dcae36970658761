package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/config"
)

// HandleError renders err for a terminal with suggestions. Cancelled work
// renders as an empty string.
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	e, ok := api.AsError(err)
	switch {
	case ok && e.Category == api.CategoryCancelled:
		return ""
	case ok:
		return formatAPIError(e)
	case errors.Is(err, config.ErrNotConfigured):
		return "Error: " + err.Error() + "\n\nSuggestions:\n  - export RP_BASE_URL=https://portal.example.com\n  - or add RP_BASE_URL to a .env file\n"
	default:
		return fmt.Sprintf("Error: %s\n", err.Error())
	}
}

func formatAPIError(e *api.Error) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "Error: %s\n", e.Message)
	if details, ok := e.Details.(string); ok && details != "" && details != api.NoDetails && details != e.Message {
		fmt.Fprintf(&msg, "Details: %s\n", details)
	}

	suggestions := suggestionsFor(e)
	if len(suggestions) > 0 {
		msg.WriteString("\nSuggestions:\n")
		for _, s := range suggestions {
			fmt.Fprintf(&msg, "  - %s\n", s)
		}
	}
	return msg.String()
}

func suggestionsFor(e *api.Error) []string {
	switch e.Category {
	case api.CategoryAuth:
		return []string{
			"Run: rp auth login",
			"Check the active profile with: rp auth status",
		}
	case api.CategoryClient:
		switch e.StatusCode {
		case 0:
			return nil
		case http.StatusForbidden:
			return []string{
				"Your account is not allowed to do this",
				"Check --role (tenant or landlord) matches your account",
			}
		case http.StatusNotFound:
			return []string{
				"Check the ID is correct",
				"The record may have been deleted",
			}
		case http.StatusTooManyRequests:
			return []string{"Wait a few seconds and retry"}
		default:
			return []string{
				e.Category.Suggestion(),
				"Use --debug to see the request",
			}
		}
	case api.CategoryServer:
		return []string{
			e.Category.Suggestion(),
			"Retry automatically with --retries 3",
		}
	case api.CategoryNetwork:
		return []string{
			e.Category.Suggestion(),
			"Verify the portal URL (RP_BASE_URL or --base-url)",
			"Raise the request timeout with --timeout",
		}
	default:
		return []string{"Use --debug for more details"}
	}
}
