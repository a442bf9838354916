package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// Current is the version of the binary, set at build time via ldflags.
	Current = "dev"

	// ReleasesURL lists the published releases, newest first.
	ReleasesURL = "https://api.github.com/repos/rsvihladremio/dqd/releases/latest"
)

// Release is the subset of a GitHub release we read.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckUpdate returns the latest release when it is newer than Current, and
// a zero Release otherwise. Development builds never report an update.
func CheckUpdate(ctx context.Context, client *http.Client) (Release, error) {
	if Current == "dev" {
		return Release{}, nil
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleasesURL, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return Release{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("release check returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Release{}, fmt.Errorf("failed to decode release: %w", err)
	}
	if isNewer(strings.TrimPrefix(release.TagName, "v"), strings.TrimPrefix(Current, "v")) {
		return release, nil
	}
	return Release{}, nil
}

// isNewer compares dotted versions numerically where both parts are numbers
// and lexically otherwise. Pre-release tags are not understood.
func isNewer(latest, current string) bool {
	if latest == current {
		return false
	}

	lParts := strings.Split(latest, ".")
	cParts := strings.Split(current, ".")
	for i := 0; i < len(lParts) && i < len(cParts); i++ {
		lNum, errL := strconv.Atoi(lParts[i])
		cNum, errC := strconv.Atoi(cParts[i])
		if errL == nil && errC == nil {
			if lNum != cNum {
				return lNum > cNum
			}
			continue
		}
		if lParts[i] != cParts[i] {
			return lParts[i] > cParts[i]
		}
	}
	return len(lParts) > len(cParts)
}
