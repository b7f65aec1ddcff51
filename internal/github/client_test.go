package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGitHubDomainToAPIURL tests the logic that converts a domain to an API URL
func TestGitHubDomainToAPIURL(t *testing.T) {
	testCases := []struct {
		name           string
		domain         string
		expectedAPIURL string
	}{
		{
			name:           "Default GitHub.com",
			domain:         "github.com",
			expectedAPIURL: "https://api.github.com/",
		},
		{
			name:           "GitHub Enterprise",
			domain:         "github.example.com",
			expectedAPIURL: "https://github.example.com/api/v3/",
		},
		{
			name:           "Empty Domain (should default to github.com)",
			domain:         "",
			expectedAPIURL: "https://api.github.com/",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			apiURL := APIURL(tc.domain)
			assert.Equal(t, tc.expectedAPIURL, apiURL)

			parsedURL, err := url.Parse(apiURL)
			require.NoError(t, err)
			assert.Equal(t, apiURL, parsedURL.String())
		})
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(&config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")

	client, err := NewClient(&config.Config{GitHub: config.GitHubConfig{Token: "t", Domain: "git.example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "https://git.example.com/api/v3/", client.client.BaseURL.String())
	assert.Equal(t, 1, client.concurrency)
}

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		input     string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		{input: "InfiniumDevIO/Ample-Frontend", wantOwner: "InfiniumDevIO", wantName: "Ample-Frontend"},
		{input: "Ample-Frontend", wantErr: true},
		{input: "a/b/c", wantErr: true},
		{input: "/name", wantErr: true},
		{input: "owner/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, name, err := SplitRepository(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "expected format: owner/repo")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestFilterByAuthor(t *testing.T) {
	commits := []models.Commit{
		{SHA: "1", AuthorEmail: "Dev1@Example.com"},
		{SHA: "2", AuthorEmail: "dev2@example.com"},
		{SHA: "3", AuthorEmail: "dev1@example.com.au"},
	}

	assert.Equal(t, commits, FilterByAuthor(commits, ""))

	kept := FilterByAuthor(commits, "dev1@example.com")
	require.Len(t, kept, 2)
	assert.Equal(t, "1", kept[0].SHA)
	assert.Equal(t, "3", kept[1].SHA)

	assert.Empty(t, FilterByAuthor(commits, "nobody@example.com"))
}

const commitsPayload = `[
  {
    "sha": "a1b2c3d4e5f6a7b8c9d0",
    "commit": {
      "message": "adjusted auth page button styles\n\nmore detail",
      "author": {"name": "Dev One", "email": "dev1@example.com", "date": "2025-03-01T10:00:00Z"}
    }
  },
  {
    "sha": "0f0e0d0c0b0a09080706",
    "commit": {
      "message": "bump deps",
      "author": {"name": "Bot", "email": "bot@example.com", "date": "2025-02-28T08:30:00Z"}
    }
  },
  {
    "commit": {"message": "no sha"}
  }
]`

type fakeGitHub struct {
	mu       sync.Mutex
	requests []string
}

func newTestClient(t *testing.T, concurrency int) (*Client, *fakeGitHub) {
	t.Helper()
	fake := &fakeGitHub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.requests = append(fake.requests, r.URL.Path+"?"+r.URL.RawQuery)
		fake.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/repos/acme/frontend/commits"):
			fmt.Fprint(w, commitsPayload)
		case strings.HasPrefix(r.URL.Path, "/repos/acme/backend/commits"):
			fmt.Fprint(w, `[{"sha": "ffffeeee1111", "commit": {"message": "api: add reset endpoint",
				"author": {"name": "Dev One", "email": "DEV1@example.com", "date": "2025-03-02T09:00:00Z"}}}]`)
		case strings.HasPrefix(r.URL.Path, "/repos/acme/history/commits"):
			servePagedCommits(w, r)
		case strings.HasPrefix(r.URL.Path, "/repos/acme/broken/commits"):
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "boom"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"login": "dev1", "name": "Dev One", "email": "dev1@example.com", "html_url": "https://github.com/dev1"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{
		GitHub:   config.GitHubConfig{Token: "test-token"},
		Analysis: config.AnalysisConfig{CommitConcurrency: concurrency, RequestTimeout: 5 * time.Second},
	})
	require.NoError(t, err)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.client.BaseURL = baseURL
	return client, fake
}

func TestListCommits(t *testing.T) {
	client, fake := newTestClient(t, 1)

	commits, err := client.ListCommits(context.Background(), "acme", "frontend", 100)
	require.NoError(t, err)

	require.Len(t, commits, 2)
	assert.Equal(t, models.Commit{
		SHA:          "a1b2c3d4e5f6a7b8c9d0",
		ShortSHA:     "a1b2c3d",
		Message:      "adjusted auth page button styles\n\nmore detail",
		AuthorName:   "Dev One",
		AuthorEmail:  "dev1@example.com",
		AuthoredDate: "2025-03-01T10:00:00Z",
		Repository:   "acme/frontend",
	}, commits[0])
	require.Len(t, fake.requests, 1)
	assert.Contains(t, fake.requests[0], "per_page=100")
}

// servePagedCommits serves five commits, two per page, linking each page to
// the next one.
func servePagedCommits(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	const total, perPage = 5, 2

	first := (page - 1) * perPage
	var items []string
	for i := first; i < total && i < first+perPage; i++ {
		items = append(items, fmt.Sprintf(`{"sha": "%040d", "commit": {"message": "change %d",
			"author": {"name": "Dev One", "email": "dev1@example.com", "date": "2025-03-01T10:00:00Z"}}}`, i+1, i+1))
	}
	if first+perPage < total {
		next := fmt.Sprintf("http://%s%s?page=%d&per_page=%s", r.Host, r.URL.Path, page+1, r.URL.Query().Get("per_page"))
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
	}
	fmt.Fprint(w, "["+strings.Join(items, ",")+"]")
}

func TestListCommitsPaginates(t *testing.T) {
	tests := []struct {
		name         string
		limit        int
		wantCommits  int
		wantRequests int
		wantPerPage  string
	}{
		{name: "Stops once the limit is reached", limit: 3, wantCommits: 3, wantRequests: 2, wantPerPage: "per_page=3"},
		{name: "Follows every page", limit: 10, wantCommits: 5, wantRequests: 3, wantPerPage: "per_page=10"},
		{name: "Limit above the page cap", limit: 250, wantCommits: 5, wantRequests: 3, wantPerPage: "per_page=100"},
		{name: "Non-positive limit uses the page cap", limit: 0, wantCommits: 5, wantRequests: 3, wantPerPage: "per_page=100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, 1)

			commits, err := client.ListCommits(context.Background(), "acme", "history", tt.limit)
			require.NoError(t, err)

			require.Len(t, commits, tt.wantCommits)
			assert.Equal(t, "change 1", commits[0].Message)
			assert.Equal(t, fmt.Sprintf("change %d", tt.wantCommits), commits[len(commits)-1].Message)
			require.Len(t, fake.requests, tt.wantRequests)
			assert.Contains(t, fake.requests[0], tt.wantPerPage)
			if tt.wantRequests > 1 {
				assert.Contains(t, fake.requests[1], "page=2")
			}
		})
	}
}

func TestFetchCommits(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			client, _ := newTestClient(t, concurrency)

			repos := []string{"acme/frontend", "acme/missing", "not-a-repo", "acme/backend", "acme/broken"}
			commits, skipped := client.FetchCommits(context.Background(), repos, "dev1@EXAMPLE.com", 50)

			require.Len(t, commits, 2)
			assert.Equal(t, "acme/frontend", commits[0].Repository)
			assert.Equal(t, "acme/backend", commits[1].Repository)
			assert.Equal(t, "ffffeee", commits[1].ShortSHA)

			require.Len(t, skipped, 3)
			assert.Equal(t, "acme/missing", skipped[0].Repository)
			assert.Contains(t, skipped[0].Reason, "404")
			assert.Equal(t, "not-a-repo", skipped[1].Repository)
			assert.Contains(t, skipped[1].Reason, "invalid repository format")
			assert.Equal(t, "acme/broken", skipped[2].Repository)
			assert.Contains(t, skipped[2].Reason, "500")
		})
	}
}

func TestFetchCommitsWithoutAuthorFilter(t *testing.T) {
	client, _ := newTestClient(t, 2)

	commits, skipped := client.FetchCommits(context.Background(), []string{"acme/frontend", "acme/backend"}, "", 10)

	assert.Empty(t, skipped)
	require.Len(t, commits, 3)
	assert.Equal(t, []string{"a1b2c3d", "0f0e0d0", "ffffeee"},
		[]string{commits[0].ShortSHA, commits[1].ShortSHA, commits[2].ShortSHA})
}

func TestCurrentUser(t *testing.T) {
	client, _ := newTestClient(t, 1)

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.GitHubUser{
		Login: "dev1",
		Name:  "Dev One",
		Email: "dev1@example.com",
		URL:   "https://github.com/dev1",
	}, user)
}
