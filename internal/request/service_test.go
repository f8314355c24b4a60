package request

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/domain"
	"bloodlink/pkg/platform/sentinel"
)

func newTestService() (*Service, *InMemoryStore) {
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger), store
}

func validInput() SubmitInput {
	return SubmitInput{
		HospitalName:     "City Hospital",
		HospitalEmail:    "blood@cityhospital.example",
		HospitalPhone:    "+911122334455",
		HospitalLocation: "Pune",
		BloodGroup:       "AB-",
		PatientDetails:   "post-surgery transfusion",
		Urgency:          "high",
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	r, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.BloodGroupABNeg, r.BloodGroup)
	assert.Equal(t, domain.UrgencyHigh, r.Urgency)
	assert.Equal(t, domain.RequestStatusOpen, r.Status)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
}

func TestSubmitDefaultsUrgency(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.Urgency = ""

	r, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.UrgencyMedium, r.Urgency)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService()

	t.Run("invalid blood group", func(t *testing.T) {
		in := validInput()
		in.BloodGroup = "XYZ"
		_, err := svc.Submit(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidBloodGroup)
	})

	t.Run("invalid urgency", func(t *testing.T) {
		in := validInput()
		in.Urgency = "panic"
		_, err := svc.Submit(context.Background(), in)
		assert.Error(t, err)
	})

	t.Run("missing hospital fields", func(t *testing.T) {
		in := validInput()
		in.HospitalLocation = ""
		_, err := svc.Submit(context.Background(), in)
		assert.Error(t, err)
	})
}

func TestUpdateStatusMonotonic(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	r, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(ctx, r.ID, domain.RequestStatusMatched))
	require.NoError(t, store.UpdateStatus(ctx, r.ID, domain.RequestStatusOpen))

	got, err := store.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusMatched, got.Status, "matched never reverts to open")

	require.NoError(t, store.UpdateStatus(ctx, r.ID, domain.RequestStatusMatched))
	got, err = store.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusMatched, got.Status, "same-status update is idempotent")

	require.NoError(t, store.UpdateStatus(ctx, r.ID, domain.RequestStatusClosed))
	got, err = store.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusClosed, got.Status)
}

func TestUpdateStatusUnknownRequest(t *testing.T) {
	_, store := newTestService()
	err := store.UpdateStatus(context.Background(), uuid.New(), domain.RequestStatusMatched)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
