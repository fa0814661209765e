package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/repository"
	"github.com/undesputed/senior-care-central-sub001/internal/store"
)

const (
	directoryCacheKey = "agencies:published"
	maxSpecialties    = 3
)

// DirectoryAgency one card in GET /agencies
type DirectoryAgency struct {
	ID           string   `json:"id"`
	BusinessName string   `json:"businessName"`
	Description  string   `json:"description"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ServiceAreas []string `json:"serviceAreas"`
	Specialties  []string `json:"specialties"`
	PriceRange   string   `json:"priceRange"`
}

// AgencyDirectoryService published agency listing
type AgencyDirectoryService struct {
	agencies repository.AgenciesRepository
	kv       store.KV // optional
	ttl      time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	intn func(n int) int
}

func NewAgencyDirectoryService(agencies repository.AgenciesRepository, kv store.KV, ttl time.Duration, logger *zap.Logger) *AgencyDirectoryService {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &AgencyDirectoryService{agencies: agencies, kv: kv, ttl: ttl, logger: logger, intn: r.Intn}
}

// WithRand replaces the price-range source.
func (s *AgencyDirectoryService) WithRand(intn func(n int) int) *AgencyDirectoryService {
	s.mu.Lock()
	s.intn = intn
	s.mu.Unlock()
	return s
}

// List price ranges are display-only and regenerated on every call; nothing is stored.
func (s *AgencyDirectoryService) List(ctx context.Context) ([]DirectoryAgency, error) {
	entries, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].PriceRange = s.priceRange()
	}
	return entries, nil
}

func (s *AgencyDirectoryService) published(ctx context.Context) ([]DirectoryAgency, error) {
	if s.kv != nil {
		var cached []DirectoryAgency
		err := store.GetJSON(ctx, s.kv, directoryCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Agency directory cache read failed", zap.Error(err))
		}
	}

	agencies, err := s.agencies.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(agencies))
	for _, a := range agencies {
		ids = append(ids, a.AgencyID)
	}
	services, err := s.agencies.ListServicesForAgencies(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryAgency, 0, len(agencies))
	for _, a := range agencies {
		specialties := []string{}
		for _, svc := range services[a.AgencyID] {
			if len(specialties) == maxSpecialties {
				break
			}
			specialties = append(specialties, svc.ServiceName)
		}
		areas := []string(a.ServiceAreas)
		if areas == nil {
			areas = []string{}
		}
		entries = append(entries, DirectoryAgency{
			ID:           a.AgencyID,
			BusinessName: a.BusinessName,
			Description:  a.Description,
			City:         a.City,
			State:        a.State,
			ServiceAreas: areas,
			Specialties:  specialties,
		})
	}

	if s.kv != nil {
		if err := store.SetJSON(ctx, s.kv, directoryCacheKey, entries, s.ttl); err != nil {
			s.logger.Warn("Agency directory cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

// priceRange hourly band: low in [$20, $34], width in [$5, $24].
func (s *AgencyDirectoryService) priceRange() string {
	s.mu.Lock()
	low := 20 + s.intn(15)
	high := low + 5 + s.intn(20)
	s.mu.Unlock()
	return fmt.Sprintf("$%d-$%d/hr", low, high)
}

func (s *AgencyDirectoryService) Invalidate(ctx context.Context) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Del(ctx, directoryCacheKey); err != nil {
		s.logger.Warn("Agency directory cache invalidation failed", zap.Error(err))
	}
}
