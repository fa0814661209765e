package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

const onboardingBucket = "onboarding-uploads"

type failingDocuments struct{ *MemoryDocumentStore }

func (failingDocuments) Remove(context.Context, string, []string) error {
	return errors.New("storage unavailable")
}

func TestPatientOnboarding_StartSaveFinalize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewPatientOnboardingService(f.store, f.store, NewMemoryDocumentStore(), onboardingBucket, f.logger)

	sess, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingFirstStep, sess.CurrentStep)

	again, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, again.SessionID)

	_, err = svc.SaveStep(ctx, SaveStepRequest{Caller: f.famUser, SessionID: sess.SessionID, Step: 1,
		Data: json.RawMessage(`{"first_name":"Rose","last_name":"Smith","date_of_birth":"1941-03-09"}`)})
	require.NoError(t, err)
	saved, err := svc.SaveStep(ctx, SaveStepRequest{Caller: f.famUser, SessionID: sess.SessionID, Step: 3,
		Data: json.RawMessage(`{"careLevel":"assisted","service_requirements":["meals","medication"]}`)})
	require.NoError(t, err)
	assert.Equal(t, 3, saved.CurrentStep)

	var stepData map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(saved.StepData, &stepData))
	assert.Contains(t, stepData, "step_1")
	assert.Contains(t, stepData, "step_3")

	done, err := svc.Finalize(ctx, f.famUser, sess.SessionID)
	require.NoError(t, err)
	require.NotNil(t, done.Session.CompletedAt)
	require.NotNil(t, done.Session.PatientID)
	assert.Equal(t, done.Patient.PatientID, *done.Session.PatientID)
	assert.Equal(t, "Rose", done.Patient.FirstName)
	assert.Equal(t, "assisted", done.Patient.CareLevel)
	assert.Equal(t, []string{"meals", "medication"}, []string(done.Patient.ServiceRequirements))
	require.NotNil(t, done.Patient.DateOfBirth)
	assert.Equal(t, 1941, done.Patient.DateOfBirth.Year())

	// completed sessions are never reopened
	_, err = svc.SaveStep(ctx, SaveStepRequest{Caller: f.famUser, SessionID: sess.SessionID, Step: 2, Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.Finalize(ctx, f.famUser, sess.SessionID)
	assert.ErrorIs(t, err, ErrConflict)

	next, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)
	assert.NotEqual(t, sess.SessionID, next.SessionID)
}

func TestPatientOnboarding_SaveStepValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewPatientOnboardingService(f.store, f.store, nil, onboardingBucket, f.logger)
	sess, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)

	_, err = svc.SaveStep(ctx, SaveStepRequest{Caller: f.famUser, SessionID: sess.SessionID, Step: 8})
	requireField(t, err, "step", "step must be between 1 and 7")

	_, err = svc.SaveStep(ctx, SaveStepRequest{Caller: f.famUser, SessionID: sess.SessionID, Step: 2, Data: json.RawMessage(`[1,2]`)})
	requireField(t, err, "data", "data must be a JSON object")

	other, _ := f.secondFamily(t)
	_, err = svc.SaveStep(ctx, SaveStepRequest{Caller: other, SessionID: sess.SessionID, Step: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPatientOnboarding_FinalizeRequiresNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewPatientOnboardingService(f.store, f.store, nil, onboardingBucket, f.logger)
	sess, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)
	_, err = svc.SaveStep(ctx, SaveStepRequest{Caller: f.famUser, SessionID: sess.SessionID, Step: 1, Data: json.RawMessage(`{"first_name":"Rose"}`)})
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, f.famUser, sess.SessionID)
	requireField(t, err, "last_name", "Patient last name is required")
}

func TestPatientOnboarding_CancelRemovesFilesAndRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := NewMemoryDocumentStore()
	svc := NewPatientOnboardingService(f.store, f.store, docs, onboardingBucket, f.logger)

	sess, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)
	path := f.family.FamilyID + "/" + sess.SessionID + "/care-plan.pdf"
	docs.Put(onboardingBucket, path)
	f.store.PutOnboardingFile(domain.OnboardingFile{SessionID: sess.SessionID, StoragePath: path, FileName: "care-plan.pdf"})

	require.NoError(t, svc.Cancel(ctx, f.famUser, sess.SessionID))

	objs, err := docs.List(ctx, onboardingBucket, f.family.FamilyID+"/")
	require.NoError(t, err)
	assert.Empty(t, objs)
	_, err = f.store.GetSession(ctx, sess.SessionID, f.family.FamilyID)
	assert.Error(t, err)

	assert.ErrorIs(t, svc.Cancel(ctx, f.famUser, sess.SessionID), ErrNotFound)
}

func TestPatientOnboarding_CancelContinuesWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewPatientOnboardingService(f.store, f.store, failingDocuments{NewMemoryDocumentStore()}, onboardingBucket, f.logger)

	sess, err := svc.Start(ctx, f.famUser)
	require.NoError(t, err)
	f.store.PutOnboardingFile(domain.OnboardingFile{SessionID: sess.SessionID, StoragePath: "x/y.pdf"})

	require.NoError(t, svc.Cancel(ctx, f.famUser, sess.SessionID))
	_, err = f.store.GetSession(ctx, sess.SessionID, f.family.FamilyID)
	assert.Error(t, err)
}

func TestPatientFromStepData_LaterStepsWin(t *testing.T) {
	p, err := PatientFromStepData(json.RawMessage(`{
		"step_1": {"first_name": "Rose", "last_name": "Smith", "notes": "first"},
		"step_5": {"notes": "  later  "}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "later", p.Notes)
	assert.Nil(t, p.DateOfBirth)

	_, err = PatientFromStepData(json.RawMessage(`{"step_1": {"first_name": "A", "last_name": "B", "date_of_birth": "09/03/1941"}}`))
	requireField(t, err, "date_of_birth", "date_of_birth must be YYYY-MM-DD")
}
