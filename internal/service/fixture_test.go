package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

// fixture one family with a patient and one agency, backed by the memory store.
type fixture struct {
	store    *repository.MemoryStore
	logger   *zap.Logger
	family   *domain.Family
	patient  *domain.Patient
	agency   *domain.Agency
	famUser  Caller
	provUser Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := repository.NewMemoryStore()

	s.PutProfile(domain.Profile{ID: "fam-account", Email: "fam@example.com", Role: domain.RoleFamily})
	s.PutProfile(domain.Profile{ID: "prov-account", Email: "prov@example.com", Role: domain.RoleProvider})

	family, err := s.UpsertFamily(ctx, &domain.Family{UserID: "fam-account", FullName: "Jane Doe"})
	require.NoError(t, err)
	patient, err := s.CreatePatient(ctx, &domain.Patient{FamilyID: family.FamilyID, FirstName: "Ann", LastName: "Doe"})
	require.NoError(t, err)
	agency, err := s.UpsertBusinessInfo(ctx, "prov-account", domain.BusinessInfo{
		BusinessName:  "Sunrise Care",
		ContactEmail:  "hello@sunrise.example",
		ContactPhone:  "555-0100",
		StreetAddress: "1 Main St",
		City:          "Austin",
		State:         "TX",
		ZipCode:       "78701",
		PermitNumber:  "P-1",
	})
	require.NoError(t, err)

	return &fixture{
		store:    s,
		logger:   zap.NewNop(),
		family:   family,
		patient:  patient,
		agency:   agency,
		famUser:  Caller{AccountID: "fam-account", Role: domain.RoleFamily},
		provUser: Caller{AccountID: "prov-account", Role: domain.RoleProvider},
	}
}

func (f *fixture) notifications() *NotificationService {
	return NewNotificationService(f.store, f.store, f.store, nil, f.logger)
}

// secondFamily another family with its own patient.
func (f *fixture) secondFamily(t *testing.T) (Caller, *domain.Patient) {
	t.Helper()
	ctx := context.Background()
	f.store.PutProfile(domain.Profile{ID: "other-account", Role: domain.RoleFamily})
	fam, err := f.store.UpsertFamily(ctx, &domain.Family{UserID: "other-account", FullName: "John Roe"})
	require.NoError(t, err)
	p, err := f.store.CreatePatient(ctx, &domain.Patient{FamilyID: fam.FamilyID, FirstName: "Bob", LastName: "Roe"})
	require.NoError(t, err)
	return Caller{AccountID: "other-account", Role: domain.RoleFamily}, p
}
