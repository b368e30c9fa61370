package reports

import (
	"context"
	"fmt"
	"net/url"

	"github.com/distrohub/mediadesk/internal/constants"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/session"
)

// Source is the part of the API client the reports read from.
type Source interface {
	MembersWithCommitments(ctx context.Context, sess *session.Session, query url.Values) (*models.CommitmentPage, error)
	MemberDetails(ctx context.Context, sess *session.Session, memberID string, query url.Values) (*models.MemberDetails, error)
}

// Service loads report pages.
type Service struct {
	src    Source
	logger *logging.Logger
}

// NewService wraps src. logger may be nil.
func NewService(src Source, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{src: src, logger: logger.Component("reports")}
}

// Commitments loads one page of members with commitments for the
// session's distributor.
func (s *Service) Commitments(ctx context.Context, sess *session.Session, q Query) (*models.CommitmentPage, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	page, err := s.src.MembersWithCommitments(ctx, sess, q.Values())
	if err != nil {
		s.logger.Error().Err(err).Int("page", q.Page).Msg("commitments report failed")
		return nil, err
	}
	return page, nil
}

// MemberDetails loads one page of a member's deal commitments.
func (s *Service) MemberDetails(ctx context.Context, sess *session.Session, memberID string, q Query) (*models.MemberDetails, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	details, err := s.src.MemberDetails(ctx, sess, memberID, q.Values())
	if err != nil {
		s.logger.Error().Err(err).Str("member", memberID).Int("page", q.Page).Msg("member report failed")
		return nil, err
	}
	return details, nil
}

// AllCommitments walks every page of the commitments report, starting at
// page 1 regardless of q.Page.
func (s *Service) AllCommitments(ctx context.Context, sess *session.Session, q Query) ([]models.MemberCommitment, error) {
	var rows []models.MemberCommitment
	err := walkPages(ctx, q, func(q Query) (models.Pagination, int, error) {
		page, err := s.Commitments(ctx, sess, q)
		if err != nil {
			return models.Pagination{}, 0, err
		}
		rows = append(rows, page.Items...)
		return page.Pagination, len(page.Items), nil
	})
	return rows, err
}

// AllMemberDetails walks every page of one member's report. The member
// header and stats come from the first page.
func (s *Service) AllMemberDetails(ctx context.Context, sess *session.Session, memberID string, q Query) (*models.MemberDetails, error) {
	var out *models.MemberDetails
	err := walkPages(ctx, q, func(q Query) (models.Pagination, int, error) {
		d, err := s.MemberDetails(ctx, sess, memberID, q)
		if err != nil {
			return models.Pagination{}, 0, err
		}
		if out == nil {
			out = d
		} else {
			out.Items = append(out.Items, d.Items...)
		}
		return d.Pagination, len(d.Items), nil
	})
	if err != nil {
		return nil, err
	}
	out.Pagination = models.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: len(out.Items), Limit: len(out.Items)}
	return out, nil
}

// walkPages calls load for pages 1..totalPages. An empty page ends the
// walk early; MaxPaginationPages bounds it.
func walkPages(ctx context.Context, q Query, load func(Query) (models.Pagination, int, error)) error {
	q = q.Normalize()
	for n := 1; n <= constants.MaxPaginationPages; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.Page = n
		p, count, err := load(q)
		if err != nil {
			return fmt.Errorf("page %d: %w", n, err)
		}
		if count == 0 || p.TotalPages <= n {
			return nil
		}
	}
	return fmt.Errorf("report has more than %d pages", constants.MaxPaginationPages)
}
