package gh

import (
	"context"
	"fmt"

	gogh "github.com/google/go-github/v57/github"

	"github.com/adoptersbot/adopters/internal/log"
	"github.com/adoptersbot/adopters/internal/model"
)

// SearchResultCap is GitHub's hard ceiling on code search results.
// A total at the cap means coverage may be incomplete.
const SearchResultCap = 1000

// SearchMarkerFiles runs a code search for the marker filename and
// returns one hit per result plus the reported total.
func (c *Client) SearchMarkerFiles(ctx context.Context, marker string) ([]model.SearchHit, int, error) {
	query := fmt.Sprintf("filename:%s", marker)

	opts := &gogh.SearchOptions{
		ListOptions: gogh.ListOptions{PerPage: 100},
	}

	var hits []model.SearchHit
	total := 0

	for {
		result, resp, err := c.api.Search.Code(ctx, query, opts)
		if err != nil {
			return nil, 0, wrapAPIError(err)
		}

		total = result.GetTotal()
		for _, code := range result.CodeResults {
			hits = append(hits, model.SearchHit{
				Path:     code.GetPath(),
				Identity: code.GetRepository().GetFullName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug("code search complete", "query", query, "hits", len(hits), "total", total)
	return hits, total, nil
}
