package lineweb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/transport"
	"github.com/godeps/lineweb-go/pkg/validate"
)

// GetMe returns the profile of the signed-in account.
func (c *Client) GetMe(ctx context.Context) (Me, error) {
	req := transport.Request{Operation: "me", Method: http.MethodGet, URL: c.endpoint("/v1/me", nil)}
	return send[Me](ctx, c, c.Session(), req, "Failed to fetch user profile")
}

// GetOwners lists the business owners of an account.
func (c *Client) GetOwners(ctx context.Context, p OwnersParams) (OwnerList, error) {
	if err := validate.Check(validate.Params{BotID: validate.String(p.WebBotID), BizIDs: p.BizIDs}); err != nil {
		return OwnerList{}, err
	}
	q := newQuery().setIf(p.BizIDs != nil, "bizIds", joinIDs(p.BizIDs))
	req := transport.Request{
		Operation: "owners",
		Method:    http.MethodGet,
		URL:       c.endpoint("/v1/bots/"+segment(p.WebBotID)+"/owners", q),
	}
	return send[OwnerList](ctx, c, c.Session(), req, "Failed to fetch owners")
}

// GetTags lists the chat tags of an account.
func (c *Client) GetTags(ctx context.Context, p TagsParams) (TagList, error) {
	if err := validate.Check(validate.Params{BotID: validate.String(p.WebBotID), TagIDs: p.TagIDs}); err != nil {
		return TagList{}, err
	}
	q := newQuery().setIf(p.TagIDs != nil, "tagIds", joinIDs(p.TagIDs))
	req := transport.Request{
		Operation: "tags",
		Method:    http.MethodGet,
		URL:       c.endpoint("/v1/bots/"+segment(p.WebBotID)+"/tags", q),
	}
	return send[TagList](ctx, c, c.Session(), req, "Failed to fetch tags")
}

type logoutResponse struct {
	LogoutURI json.RawMessage `json:"logoutUri"`
}

// uri returns the sign-out URL, or "" when the field is missing or not a string.
func (r logoutResponse) uri() string {
	var s string
	if err := json.Unmarshal(r.LogoutURI, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Logout asks the API for a sign-out URL and then requests it. No second
// request is made when the first response carries no URL.
func (c *Client) Logout(ctx context.Context) error {
	sess := c.Session()
	req := transport.Request{
		Operation: "logout",
		Method:    http.MethodPost,
		URL:       c.endpoint("/v1/logoutUri", nil),
		Body:      map[string]string{"redirectPath": "/"},
	}
	res, err := send[logoutResponse](ctx, c, sess, req, "Failed to logout")
	if err != nil {
		return err
	}
	target := res.uri()
	if target == "" {
		return apierr.New(apierr.CodeSignOutFailed, "Logout URI not found in the response")
	}
	target, err = c.resolve(target)
	if err != nil {
		return err
	}
	if _, err := c.transport.Do(ctx, sess, transport.Request{Operation: "logout", Method: http.MethodGet, URL: target}, "Failed to logout"); err != nil {
		return err
	}
	return nil
}

// resolve turns a server-provided URL, possibly relative, into an absolute one.
func (c *Client) resolve(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", apierr.Wrap(apierr.CodeSignOutFailed, "Logout URI is not a valid URL", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", apierr.Wrap(apierr.CodeSignOutFailed, "Logout URI is not a valid URL", err)
	}
	return base.ResolveReference(ref).String(), nil
}
