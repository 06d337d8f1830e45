package lineweb

import (
	"context"
	"strconv"

	"github.com/godeps/lineweb-go/pkg/paginate"
	"github.com/godeps/lineweb-go/pkg/validate"
)

// GetContacts searches the contacts of an account by display name.
func (c *Client) GetContacts(ctx context.Context, p ContactsParams) (ContactList, error) {
	limit := valueOr(p.LimitPerPage, DefaultContactsLimit)
	maxPages := valueOr(p.MaxPages, DefaultMaxPages)
	err := validate.Check(validate.Params{
		BotID:        validate.String(p.WebBotID),
		LimitPerPage: &limit,
		LimitMin:     1,
		LimitMax:     maxContactsLimit,
		MaxPages:     &maxPages,
		NextToken:    validate.Optional(p.NextToken),
	})
	if err != nil {
		return ContactList{}, err
	}

	filter, sortKey, order := p.FilterKey, p.SortKey, p.SortOrder
	if filter == "" {
		filter = FilterAll
	}
	if sortKey == "" {
		sortKey = SortByDisplayName
	}
	if order == "" {
		order = Ascending
	}
	if err := validate.OneOf("filterKey", string(filter),
		string(FilterAll), string(FilterFriend), string(FilterNotFriend), string(FilterGroup), string(FilterSpam)); err != nil {
		return ContactList{}, err
	}
	if err := validate.OneOf("sortKey", string(sortKey), string(SortByDisplayName), string(SortByLastTalkedAt)); err != nil {
		return ContactList{}, err
	}
	if err := validate.OneOf("sortOrder", string(order), string(Ascending), string(Descending)); err != nil {
		return ContactList{}, err
	}

	return collect[Contact](ctx, c, c.Session(), "contacts", paginate.Forward, p.NextToken, maxPages, "Failed to fetch contacts",
		func(cursor string) string {
			q := newQuery().
				set("query", p.ChatName).
				set("sortKey", string(sortKey)).
				set("sortOrder", string(order)).
				set("filterKey", string(filter)).
				set("limit", strconv.Itoa(limit)).
				setIf(cursor != "", paginate.Forward.Param(), cursor)
			return c.endpoint("/v2/bots/"+segment(p.WebBotID)+"/contacts", q)
		})
}
