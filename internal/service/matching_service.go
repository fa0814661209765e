package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

const (
	DefaultMaxTags       = 5
	defaultMatchPageSize = 10
	maxMatchPageSize     = 50
)

// MatchLabel qualitative tier shown for a match score
type MatchLabel struct {
	Label string `json:"label"`
	Stars int    `json:"stars"`
	Color string `json:"color"`
}

// matchTiers ordered by descending lower bound.
var matchTiers = []struct {
	min   float64
	label MatchLabel
}{
	{85, MatchLabel{Label: "Strong Match", Stars: 4, Color: "green"}},
	{70, MatchLabel{Label: "Good Match", Stars: 3, Color: "blue"}},
	{60, MatchLabel{Label: "Match", Stars: 2, Color: "yellow"}},
}

var considerLabel = MatchLabel{Label: "Consider", Stars: 1, Color: "gray"}

// LabelFor maps a score to its tier; bounds are inclusive.
func LabelFor(score float64) MatchLabel {
	for _, t := range matchTiers {
		if score >= t.min {
			return t.label
		}
	}
	return considerLabel
}

// PresentedMatch a CareMatch with its display tier
type PresentedMatch struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patientId"`
	AgencyID   string    `json:"agencyId"`
	AgencyName string    `json:"agencyName,omitempty"`
	Score      float64   `json:"score"`
	Label      string    `json:"label"`
	Stars      int       `json:"stars"`
	Color      string    `json:"color"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PresentMatch keeps the first maxTags tags in their stored order.
func PresentMatch(m *domain.CareMatch, maxTags int) PresentedMatch {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	tags := []string{}
	for _, t := range m.Tags {
		if len(tags) == maxTags {
			break
		}
		tags = append(tags, t)
	}
	l := LabelFor(m.Score)
	return PresentedMatch{
		ID:        m.MatchID,
		PatientID: m.PatientID,
		AgencyID:  m.AgencyID,
		Score:     m.Score,
		Label:     l.Label,
		Stars:     l.Stars,
		Color:     l.Color,
		Tags:      tags,
		CreatedAt: m.CreatedAt,
	}
}

// MatchingService read side of precomputed care matches
type MatchingService struct {
	matches  repository.MatchesRepository
	families repository.FamiliesRepository
	agencies repository.AgenciesRepository
	logger   *zap.Logger
}

func NewMatchingService(matches repository.MatchesRepository, families repository.FamiliesRepository, agencies repository.AgenciesRepository, logger *zap.Logger) *MatchingService {
	return &MatchingService{matches: matches, families: families, agencies: agencies, logger: logger}
}

type Pagination struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// ListMatchesRequest GET /matching/list
type ListMatchesRequest struct {
	Caller    Caller
	PatientID string
	Offset    int
	Limit     int
}

type ListMatchesResponse struct {
	Matches    []PresentedMatch `json:"matches"`
	Pagination Pagination       `json:"pagination"`
}

// ownedPatient the patient must belong to the caller's family.
func (s *MatchingService) ownedPatient(ctx context.Context, c Caller, patientID string) (*domain.Patient, error) {
	if err := lookupID("patientId", patientID); err != nil {
		return nil, err
	}
	family, err := familyOf(ctx, s.families, c)
	if err != nil {
		return nil, err
	}
	p, err := s.families.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fromRepo(err)
	}
	if p.FamilyID != family.FamilyID {
		return nil, fmt.Errorf("%w: patient not found", ErrNotFound)
	}
	return p, nil
}

func (s *MatchingService) List(ctx context.Context, req ListMatchesRequest) (*ListMatchesResponse, error) {
	if _, err := s.ownedPatient(ctx, req.Caller, req.PatientID); err != nil {
		return nil, err
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Limit <= 0 {
		req.Limit = defaultMatchPageSize
	}
	if req.Limit > maxMatchPageSize {
		req.Limit = maxMatchPageSize
	}

	rows, total, err := s.matches.ListMatches(ctx, req.PatientID, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	out := make([]PresentedMatch, 0, len(rows))
	for _, m := range rows {
		pm := PresentMatch(m, DefaultMaxTags)
		name, ok := names[m.AgencyID]
		if !ok {
			a, err := s.agencies.GetAgency(ctx, m.AgencyID)
			switch {
			case err == nil:
				name = a.BusinessName
			case !errors.Is(err, repository.ErrNotFound):
				return nil, err
			}
			names[m.AgencyID] = name
		}
		pm.AgencyName = name
		out = append(out, pm)
	}

	return &ListMatchesResponse{
		Matches: out,
		Pagination: Pagination{
			Offset:  req.Offset,
			Limit:   req.Limit,
			Total:   total,
			HasMore: req.Offset+len(out) < total,
		},
	}, nil
}

type CheckMatchesResponse struct {
	HasMatches bool `json:"hasMatches"`
	MatchCount int  `json:"matchCount"`
}

func (s *MatchingService) Check(ctx context.Context, c Caller, patientID string) (*CheckMatchesResponse, error) {
	if _, err := s.ownedPatient(ctx, c, patientID); err != nil {
		return nil, err
	}
	n, err := s.matches.CountMatches(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &CheckMatchesResponse{HasMatches: n > 0, MatchCount: n}, nil
}
