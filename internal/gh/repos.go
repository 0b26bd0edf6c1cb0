package gh

import (
	"context"
	"fmt"

	"github.com/adoptersbot/adopters/internal/model"
)

// RepoMetadata holds the repository fields the pipeline needs to build
// an adopter entry. Nullable API fields stay empty strings.
type RepoMetadata struct {
	OwnerLogin    string
	Name          string
	FullName      string
	Description   string
	Stars         int
	Language      string
	AvatarURL     string
	HTMLURL       string
	DefaultBranch string
}

// GetRepository fetches the metadata for one repository identity.
func (c *Client) GetRepository(ctx context.Context, identity string) (*RepoMetadata, error) {
	owner, name, ok := model.SplitIdentity(identity)
	if !ok {
		return nil, fmt.Errorf("invalid repository identity %q", identity)
	}

	repo, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	return &RepoMetadata{
		OwnerLogin:    repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		Stars:         repo.GetStargazersCount(),
		Language:      repo.GetLanguage(),
		AvatarURL:     repo.GetOwner().GetAvatarURL(),
		HTMLURL:       repo.GetHTMLURL(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}
