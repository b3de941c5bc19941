package database

import (
	"fmt"
	"net/url"
	"strings"
)

// ConstructDatabaseURL points baseURL at databaseName and defaults sslmode to disable.
// An empty databaseName leaves the path of baseURL untouched.
func ConstructDatabaseURL(baseURL, databaseName string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	if databaseName != "" {
		u.Path = "/" + strings.Trim(databaseName, "/")
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
