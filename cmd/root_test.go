package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the command tree against handler and returns stdout,
// the number of API requests made and the error.
func runCLI(t *testing.T, handler http.HandlerFunc, args ...string) (string, int32, error) {
	t.Helper()
	t.Setenv(config.TokenEnvVar, "")
	t.Setenv("NO_COLOR", "1")
	// Keep a developer's own config file out of the test.
	t.Setenv("HOME", t.TempDir())

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		handler(w, r)
	}))
	defer server.Close()

	var out bytes.Buffer
	rootCmd := NewRootCmd(VersionInfo{Version: "test"})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--base-url", server.URL+"/api/v3/"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), atomic.LoadInt32(&requests), err
}

func TestLocCmd_InvalidStartDate(t *testing.T) {
	_, requests, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, "loc", "octo", "hello", "alice", "--start-date", "not-a-date")

	var dateErr *domain.InvalidDateError
	require.True(t, errors.As(err, &dateErr))
	assert.Equal(t, "not-a-date", dateErr.Value)
	assert.Equal(t, int32(0), requests)
}

func TestLocCmd_NegativeTop(t *testing.T) {
	_, requests, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, "loc", "octo", "hello", "alice", "--top=-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "top must not be negative")
	assert.Equal(t, int32(0), requests)
}

func TestLocCmd_NetworkErrorDuringDetailFetch(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/repos/octo/hello/commits" {
			fmt.Fprint(w, `[{"sha":"1111111111","commit":{"message":"m","author":{"date":"2025-03-02T00:00:00Z"}}}]`)
			return
		}
		// Drop the connection mid-request.
		hj, ok := w.(http.Hijacker)
		if !assert.True(t, ok) {
			return
		}
		conn, _, err := hj.Hijack()
		if assert.NoError(t, err) {
			conn.Close()
		}
	}

	_, _, err := runCLI(t, handler, "loc", "octo", "hello", "alice")

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
}

func TestLocCmd_RepositoryNotFound(t *testing.T) {
	_, requests, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}, "loc", "octo", "missing", "alice")

	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, int32(1), requests, "no pagination after a 404")
}

func TestLocCmd_EndToEnd(t *testing.T) {
	output := filepath.Join(t.TempDir(), "loc.json")
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/repos/octo/hello/commits":
			assert.Equal(t, "alice", r.URL.Query().Get("author"))
			assert.Equal(t, "2025-03-01T00:00:00Z", r.URL.Query().Get("since"))
			fmt.Fprint(w, `[
				{"sha":"1111111111","commit":{"message":"small","author":{"date":"2025-03-02T00:00:00Z"}}},
				{"sha":"2222222222","commit":{"message":"big","author":{"date":"2025-03-03T00:00:00Z"}}},
				{"sha":"3333333333","commit":{"message":"tiny","author":{"date":"2025-03-04T00:00:00Z"}}}
			]`)
		case "/api/v3/repos/octo/hello/commits/1111111111":
			fmt.Fprint(w, `{"stats":{"additions":6,"deletions":4}}`)
		case "/api/v3/repos/octo/hello/commits/2222222222":
			fmt.Fprint(w, `{"stats":{"additions":30,"deletions":20}}`)
		case "/api/v3/repos/octo/hello/commits/3333333333":
			fmt.Fprint(w, `{"stats":{"additions":5,"deletions":0}}`)
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}

	out, requests, err := runCLI(t, handler,
		"loc", "octo", "hello", "alice", "--start-date", "2025-03-01", "--output", output, "--concurrency", "2")

	require.NoError(t, err)
	assert.Equal(t, int32(4), requests)
	assert.Contains(t, out, "Total commits: 3")
	assert.Contains(t, out, "Total changes: 65 lines")
	assert.Contains(t, out, "Average changes per commit: 21.7 lines")
	assert.Contains(t, out, " 1. 22222222 (  50 changes) - big...")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var saved domain.LOCReport
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "octo/hello", saved.Repository)
	assert.Equal(t, "2025-03-01", saved.StartDate)
	assert.Equal(t, 65, saved.TotalChanges)
	require.Len(t, saved.Commits, 3)
	assert.Equal(t, "2222222222", saved.Commits[0].SHA)
}

func TestLocCmd_EmptyHistory(t *testing.T) {
	out, _, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}, "loc", "octo", "hello", "alice")

	require.NoError(t, err)
	assert.Contains(t, out, "Total commits: 0")
	assert.Contains(t, out, "Total changes: 0 lines")
}

func TestPRsCmd_InvalidState(t *testing.T) {
	_, requests, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, "prs", "octo", "hello", "alice", "--state", "merged")

	assert.IsType(t, &domain.InvalidStateError{}, err)
	assert.Equal(t, int32(0), requests)
}

func TestPRsCmd_Unauthenticated(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/repos/octo/hello/pulls":
			fmt.Fprint(w, `[
				{"number":3,"title":"three","state":"closed","user":{"login":"alice"},"created_at":"2025-02-01T00:00:00Z","updated_at":"2025-02-01T00:00:00Z","merged_at":"2025-02-02T00:00:00Z"},
				{"number":2,"title":"two","state":"open","user":{"login":"alice"},"created_at":"2024-06-01T00:00:00Z","updated_at":"2024-06-01T00:00:00Z"}
			]`)
		case "/api/v3/repos/octo/hello/pulls/3":
			fmt.Fprint(w, `{"number":3,"additions":8,"deletions":1,"changed_files":2}`)
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}

	out, _, err := runCLI(t, handler, "prs", "octo", "hello", "alice")

	require.NoError(t, err)
	assert.Contains(t, out, "Total PRs: 1")
	assert.Contains(t, out, "Merged PRs: 1")
	assert.Contains(t, out, "Merge rate: 100.0%")
	assert.Contains(t, out, "#3 - three... (merged) (+8/-1)")
}

func TestErrorGuidance(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		authenticated bool
		contains      string
		excludes      string
	}{
		{
			name:     "rate limit without token suggests one",
			err:      fmt.Errorf("failed to list commits: %w", &domain.RateLimitError{}),
			contains: "--token",
		},
		{
			name:          "rate limit with token does not suggest one",
			err:           &domain.RateLimitError{},
			authenticated: true,
			contains:      "--rate-limit-wait",
			excludes:      "--token",
		},
		{
			name:     "not found",
			err:      &domain.NotFoundError{Resource: "repository octo/hello"},
			contains: "owner and repository names",
		},
		{
			name:     "invalid date",
			err:      &domain.InvalidDateError{Value: "x"},
			contains: "--start-date 2025-01-01",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hints := strings.Join(errorGuidance(tc.err, tc.authenticated), "\n")
			assert.Contains(t, hints, tc.contains)
			if tc.excludes != "" {
				assert.NotContains(t, hints, tc.excludes)
			}
		})
	}

	assert.Empty(t, errorGuidance(errors.New("other"), false))
}
