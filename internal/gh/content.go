package gh

import (
	"context"
	"fmt"

	"github.com/adoptersbot/adopters/internal/model"
)

// CheckContent fetches the file at path in the given repository.
// A nil error implies the file exists.
func (c *Client) CheckContent(ctx context.Context, identity, path string) error {
	owner, name, ok := model.SplitIdentity(identity)
	if !ok {
		return fmt.Errorf("invalid repository identity %q", identity)
	}

	file, _, _, err := c.api.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return wrapAPIError(err)
	}
	if file == nil {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}
