package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
	"github.com/undesputed/senior-care-central-sub001/internal/repository"
)

func newContractService(f *fixture) *ContractService {
	return NewContractService(f.store, f.store, f.store, f.notifications(), f.logger)
}

func agencyInbox(t *testing.T, f *fixture) []*domain.Notification {
	t.Helper()
	list, err := f.store.ListNotifications(context.Background(), repository.NotificationsFilter{Role: domain.RoleProvider, AgencyID: f.agency.AgencyID})
	require.NoError(t, err)
	return list
}

func familyInbox(t *testing.T, f *fixture) []*domain.Notification {
	t.Helper()
	list, err := f.store.ListNotifications(context.Background(), repository.NotificationsFilter{Role: domain.RoleFamily, FamilyID: f.family.FamilyID})
	require.NoError(t, err)
	return list
}

func TestContractService_CreateSentNotifiesFamily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newContractService(f)

	c, err := svc.Create(ctx, CreateContractRequest{
		Caller:    f.provUser,
		AgencyID:  f.agency.AgencyID,
		PatientID: f.patient.PatientID,
		RateMinor: 3000,
		Status:    domain.ContractStatusSent,
	})
	require.NoError(t, err)
	assert.Equal(t, f.family.FamilyID, c.FamilyID)
	assert.Equal(t, domain.ContractStatusSent, c.Status)

	inbox := familyInbox(t, f)
	require.Len(t, inbox, 1)
	assert.Equal(t, "New contract received", inbox[0].Title)
}

func TestContractService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newContractService(f)

	_, err := svc.Create(ctx, CreateContractRequest{Caller: f.provUser, PatientID: f.patient.PatientID, Status: domain.ContractStatusAccepted})
	requireField(t, err, "status", "status must be draft or sent")

	_, err = svc.Create(ctx, CreateContractRequest{Caller: f.provUser, AgencyID: "not-mine", PatientID: f.patient.PatientID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(ctx, CreateContractRequest{Caller: f.famUser, PatientID: f.patient.PatientID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestContractService_DoubleAcceptIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newContractService(f)

	c, err := svc.Create(ctx, CreateContractRequest{Caller: f.provUser, PatientID: f.patient.PatientID, Status: domain.ContractStatusSent})
	require.NoError(t, err)

	req := ContractActionRequest{Caller: f.famUser, ContractID: c.ContractID}
	first, err := svc.Accept(ctx, req)
	require.NoError(t, err)
	second, err := svc.Accept(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, domain.ContractStatusAccepted, second.Status)
	assert.Equal(t, *first.AcceptedAt, *second.AcceptedAt)

	inbox := agencyInbox(t, f)
	require.Len(t, inbox, 2)
	for _, n := range inbox {
		assert.Equal(t, "Contract accepted", n.Title)
		assert.Equal(t, domain.SeveritySuccess, n.Severity)
	}

	// accepted contracts cannot be declined
	_, err = svc.Decline(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContractService_OtherFamilyCannotDecline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newContractService(f)
	other, _ := f.secondFamily(t)

	c, err := svc.Create(ctx, CreateContractRequest{Caller: f.provUser, PatientID: f.patient.PatientID, Status: domain.ContractStatusSent})
	require.NoError(t, err)

	_, err = svc.Decline(ctx, ContractActionRequest{Caller: other, ContractID: c.ContractID})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, agencyInbox(t, f))

	stored, err := f.store.GetContract(ctx, c.ContractID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusSent, stored.Status)
}

func TestContractService_DraftSendReviewDecline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newContractService(f)

	c, err := svc.Create(ctx, CreateContractRequest{Caller: f.provUser, PatientID: f.patient.PatientID})
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusDraft, c.Status)
	assert.Empty(t, familyInbox(t, f))

	// family cannot act on a draft
	_, err = svc.Review(ctx, ContractActionRequest{Caller: f.famUser, ContractID: c.ContractID})
	assert.ErrorIs(t, err, ErrNotFound)

	c, err = svc.Send(ctx, ContractActionRequest{Caller: f.provUser, ContractID: c.ContractID})
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusSent, c.Status)
	assert.Len(t, familyInbox(t, f), 1)

	c, err = svc.Review(ctx, ContractActionRequest{Caller: f.famUser, ContractID: c.ContractID})
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusUnderReview, c.Status)

	c, err = svc.Decline(ctx, ContractActionRequest{Caller: f.famUser, ContractID: c.ContractID})
	require.NoError(t, err)
	assert.Equal(t, domain.ContractStatusRejected, c.Status)
	require.NotNil(t, c.RejectedAt)

	severities := map[string]domain.Severity{}
	for _, n := range agencyInbox(t, f) {
		severities[n.Title] = n.Severity
	}
	assert.Equal(t, map[string]domain.Severity{
		"Contract under review": domain.SeverityInfo,
		"Contract declined":     domain.SeverityError,
	}, severities)

	fam, err := svc.List(ctx, f.famUser, domain.ContractStatusRejected)
	require.NoError(t, err)
	assert.Len(t, fam, 1)
	prov, err := svc.List(ctx, f.provUser, "")
	require.NoError(t, err)
	assert.Len(t, prov, 1)
}
