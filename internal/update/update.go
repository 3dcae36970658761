// Package update looks up the latest published release of the CLI.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// DefaultReleasesURL is the releases endpoint queried by default.
	DefaultReleasesURL = "https://api.github.com/repos/rentportal/rentportal-cli/releases/latest"

	// EnvNoUpdateCheck disables the check when set to any non-empty value.
	EnvNoUpdateCheck = "RP_NO_UPDATE_CHECK"

	checkTimeout = 5 * time.Second
	maxBodySize  = 1 << 20
)

// Release is the subset of the release payload the check reads.
type Release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Prerelease bool   `json:"prerelease"`
}

// Result compares the running version with the latest release.
type Result struct {
	CurrentVersion  string `json:"currentVersion"`
	LatestVersion   string `json:"latestVersion"`
	UpdateURL       string `json:"updateUrl,omitempty"`
	UpdateAvailable bool   `json:"updateAvailable"`
}

// Checker queries a releases endpoint.
type Checker struct {
	URL  string
	HTTP *http.Client
}

// NewChecker returns a Checker for the default releases endpoint.
func NewChecker() *Checker {
	return &Checker{URL: DefaultReleasesURL, HTTP: &http.Client{Timeout: checkTimeout}}
}

// Disabled reports whether update checks are turned off for this version
// or environment.
func Disabled(currentVersion string) bool {
	return currentVersion == "" || currentVersion == "dev" || os.Getenv(EnvNoUpdateCheck) != ""
}

// Check fetches the latest release and compares it with currentVersion.
// Prereleases never count as an available update.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}

	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)
	result := &Result{
		CurrentVersion: strings.TrimPrefix(currentVersion, "v"),
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}
	if !release.Prerelease && semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result, nil
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
