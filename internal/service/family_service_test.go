package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

func TestFamilyService_ProfileAndPatients(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewFamilyService(f.store, f.logger)

	got, err := svc.GetProfile(ctx, f.famUser)
	require.NoError(t, err)
	assert.Equal(t, f.family.FamilyID, got.FamilyID)

	updated, err := svc.UpdateProfile(ctx, UpdateProfileRequest{Caller: f.famUser, FullName: " Jane Q. Doe ", City: "Austin"})
	require.NoError(t, err)
	assert.Equal(t, f.family.FamilyID, updated.FamilyID)
	assert.Equal(t, "Jane Q. Doe", updated.FullName)

	_, err = svc.UpdateProfile(ctx, UpdateProfileRequest{Caller: f.famUser})
	requireField(t, err, "fullName", "fullName is required")

	patients, err := svc.ListPatients(ctx, f.famUser)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, f.patient.PatientID, patients[0].PatientID)
}

func TestFamilyService_NewAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewFamilyService(f.store, f.logger)
	fresh := Caller{AccountID: "fresh", Role: domain.RoleFamily}

	_, err := svc.GetProfile(ctx, fresh)
	assert.ErrorIs(t, err, ErrNotFound)

	patients, err := svc.ListPatients(ctx, fresh)
	require.NoError(t, err)
	assert.Empty(t, patients)

	_, err = svc.GetProfile(ctx, f.provUser)
	assert.ErrorIs(t, err, ErrForbidden)
}
