package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/session"
)

// MembersWithCommitments returns one page of the commitments report,
// scoped to the session's distributor.
func (c *Client) MembersWithCommitments(ctx context.Context, sess *session.Session, query url.Values) (*models.CommitmentPage, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	path := "/deals/members-with-commitments/" + url.PathEscape(sess.Distributor())

	var page models.CommitmentPage
	if err := c.doJSON(ctx, sess, "members_with_commitments", nethttp.MethodGet, path, query, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to load commitments report: %w", err)
	}
	page.Normalize(pageParam(query))
	return &page, nil
}

// MemberDetails returns one page of a member's deal commitments.
func (c *Client) MemberDetails(ctx context.Context, sess *session.Session, memberID string, query url.Values) (*models.MemberDetails, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if memberID == "" {
		return nil, ErrMissingID
	}
	path := "/deals/member-details/" + url.PathEscape(memberID)

	var details models.MemberDetails
	if err := c.doJSON(ctx, sess, "member_details", nethttp.MethodGet, path, query, nil, &details); err != nil {
		return nil, fmt.Errorf("failed to load member %s: %w", memberID, err)
	}
	if details.Items == nil {
		details.Items = []models.DealCommitment{}
	}
	if details.Pagination.CurrentPage == 0 {
		details.Pagination.CurrentPage = pageParam(query)
	}
	if details.Member.ID == "" {
		details.Member.ID = memberID
	}
	return &details, nil
}

func pageParam(query url.Values) int {
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
