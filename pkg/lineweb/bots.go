package lineweb

import (
	"context"
	"net/http"
	"strconv"

	"github.com/godeps/lineweb-go/pkg/paginate"
	"github.com/godeps/lineweb-go/pkg/transport"
	"github.com/godeps/lineweb-go/pkg/validate"
)

// GetBots fetches one account when p.WebBotID is set and the account list
// otherwise. The result Kind tells which field is populated.
func (c *Client) GetBots(ctx context.Context, p BotsParams) (BotsResult, error) {
	limit := valueOr(p.LimitPerPage, DefaultBotsLimit)
	maxPages := valueOr(p.MaxPages, DefaultMaxPages)
	err := validate.Check(validate.Params{
		BotID:        validate.Optional(p.WebBotID),
		LimitPerPage: &limit,
		LimitMin:     1,
		LimitMax:     maxBotsLimit,
		MaxPages:     &maxPages,
		NextToken:    validate.Optional(p.NextToken),
	})
	if err != nil {
		return BotsResult{}, err
	}

	sess := c.Session()
	if p.WebBotID != "" {
		if err := validate.Exclusive("nextToken", p.NextToken != "", "webBotId", true); err != nil {
			return BotsResult{}, err
		}
		q := newQuery().set("noFilter", "true")
		req := transport.Request{
			Operation: "bot",
			Method:    http.MethodGet,
			URL:       c.endpoint("/v1/bots/"+segment(p.WebBotID), q),
		}
		bot, err := send[Bot](ctx, c, sess, req, "Failed to fetch bot")
		if err != nil {
			return BotsResult{}, err
		}
		return BotsResult{Kind: BotsKindSingle, Bot: &bot}, nil
	}

	list, err := collect[BotData](ctx, c, sess, "bots", paginate.Forward, p.NextToken, maxPages, "Failed to fetch bots",
		func(cursor string) string {
			q := newQuery().
				set("noFilter", "true").
				set("limit", strconv.Itoa(limit)).
				setIf(cursor != "", paginate.Forward.Param(), cursor)
			return c.endpoint("/v1/bots", q)
		})
	if err != nil {
		return BotsResult{}, err
	}
	return BotsResult{Kind: BotsKindList, List: &list}, nil
}
