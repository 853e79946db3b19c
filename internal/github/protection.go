// Package github talks to the GitHub REST API through go-gh, reusing the
// authentication the gh CLI already holds.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/repository"
)

// StatusChecks is the required_status_checks section of a protection request
type StatusChecks struct {
	Strict   bool     `json:"strict"`
	Contexts []string `json:"contexts"`
}

// PullRequestReviews is the required_pull_request_reviews section
type PullRequestReviews struct {
	RequiredApprovingReviewCount int  `json:"required_approving_review_count"`
	DismissStaleReviews          bool `json:"dismiss_stale_reviews"`
}

// Protection is the body of PUT /repos/{owner}/{repo}/branches/{branch}/protection.
// Restrictions is always sent as null (no push restrictions).
type Protection struct {
	RequiredStatusChecks       StatusChecks       `json:"required_status_checks"`
	EnforceAdmins              bool               `json:"enforce_admins"`
	RequiredPullRequestReviews PullRequestReviews `json:"required_pull_request_reviews"`
	Restrictions               *struct{}          `json:"restrictions"`
}

// Protector applies branch protection rules
type Protector interface {
	Protect(ctx context.Context, repo Repository, branch string, rules Protection) error
}

// Repository identifies a GitHub repository
type Repository struct {
	Host  string
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ResolveRepository returns owner/name when both are given, otherwise the repository
// named by remoteURL (an https or ssh git remote as printed by git remote get-url)
func ResolveRepository(owner, name, remoteURL string) (Repository, error) {
	if owner != "" && name != "" {
		return Repository{Owner: owner, Name: name}, nil
	}
	if remoteURL == "" {
		return Repository{}, errors.New("no owner/repo configured and no git remote to derive them from")
	}

	parsed, err := repository.Parse(remoteURL)
	if err != nil {
		return Repository{}, fmt.Errorf("failed to determine repository from remote %q: %w", remoteURL, err)
	}
	return Repository{Host: parsed.Host, Owner: parsed.Owner, Name: parsed.Name}, nil
}

// RESTProtector is the production Protector backed by go-gh's REST client
type RESTProtector struct {
	client *api.RESTClient
}

// NewRESTProtector creates a Protector using gh's stored credentials
func NewRESTProtector() (*RESTProtector, error) {
	client, err := api.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub API client: %w", err)
	}
	return &RESTProtector{client: client}, nil
}

// NewRESTProtectorWithOptions creates a Protector with explicit client options
func NewRESTProtectorWithOptions(opts api.ClientOptions) (*RESTProtector, error) {
	client, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub API client: %w", err)
	}
	return &RESTProtector{client: client}, nil
}

// Protect replaces the protection settings of branch
func (p *RESTProtector) Protect(ctx context.Context, repo Repository, branch string, rules Protection) error {
	if rules.RequiredStatusChecks.Contexts == nil {
		rules.RequiredStatusChecks.Contexts = []string{}
	}

	body, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode protection rules: %w", err)
	}

	path := fmt.Sprintf("repos/%s/%s/branches/%s/protection",
		url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(branch))

	var response struct {
		URL string `json:"url"`
	}
	if err := p.client.DoWithContext(ctx, http.MethodPut, path, bytes.NewReader(body), &response); err != nil {
		return fmt.Errorf("failed to protect %s on %s: %w", branch, repo, err)
	}
	return nil
}
