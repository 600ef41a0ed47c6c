package field_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/field-booking/internal/domain/field"
	"github.com/BruksfildServices01/field-booking/internal/models"
	fielduc "github.com/BruksfildServices01/field-booking/internal/usecase/field"
	"github.com/BruksfildServices01/field-booking/internal/usecase/usecasetest"
)

func TestGenerateSlotsIsIdempotent(t *testing.T) {
	f := usecasetest.New(t)
	ctx := context.Background()

	// quarta-feira 2026-06-03
	f.Repo.AddSchedule(models.FieldSchedule{
		FieldID: f.Field.ID, Weekday: 3, OpenTime: "18:00", CloseTime: "22:00", SlotMinutes: 60, Active: true,
	})

	uc := fielduc.NewGenerateSlots(f.Repo)
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)

	n, err := uc.Execute(ctx, f.Owner.ID, f.Field.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	n, err = uc.Execute(ctx, f.Owner.ID, f.Field.ID, from, to)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerateSlotsChecksOwnership(t *testing.T) {
	f := usecasetest.New(t)
	uc := fielduc.NewGenerateSlots(f.Repo)

	_, err := uc.Execute(context.Background(), f.User.ID, f.Field.ID, usecasetest.T0, usecasetest.T0)
	assert.EqualError(t, err, "field_not_found")

	_, err = uc.Execute(context.Background(), f.Owner.ID, f.Field.ID, usecasetest.T0, usecasetest.T0)
	assert.EqualError(t, err, "no_schedule")
}

func TestSearchFieldsByDistanceAndDate(t *testing.T) {
	f := usecasetest.New(t)
	ctx := context.Background()

	near := f.Repo.AddField(models.Field{
		OwnerID: f.Owner.ID, Name: "Plateau", City: "Abidjan", Sport: "football",
		Latitude: 5.3197, Longitude: -4.0167, Timezone: "Africa/Abidjan",
		NetPrice: 15000, PublicPrice: 16500, Active: true, Approved: true,
	})
	far := f.Repo.AddField(models.Field{
		OwnerID: f.Owner.ID, Name: "Cocody", City: "Abidjan", Sport: "football",
		Latitude: 5.3600, Longitude: -3.9670, Timezone: "Africa/Abidjan",
		NetPrice: 10000, PublicPrice: 11000, Active: true, Approved: true,
	})
	f.Repo.AddField(models.Field{
		OwnerID: f.Owner.ID, Name: "En attente", City: "Abidjan", Sport: "football",
		Latitude: 5.3197, Longitude: -4.0167, NetPrice: 5000, PublicPrice: 5500, Active: true,
	})

	start := usecasetest.T0.Add(48 * time.Hour)
	f.Repo.AddSlot(models.FieldAvailability{
		FieldID: near.ID, StartsAt: start, EndsAt: start.Add(time.Hour), IsAvailable: true,
	})

	lat, lng := 5.3200, -4.0160
	uc := fielduc.NewSearchFields(f.Repo, f.Now)

	res, err := uc.Execute(ctx, fielduc.SearchInput{
		Filter: field.SearchFilter{Sport: "Football", Lat: &lat, Lng: &lng, RadiusKm: 20},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, near.ID, res[0].Field.ID)
	assert.Equal(t, far.ID, res[1].Field.ID)
	assert.Less(t, *res[0].DistanceKm, *res[1].DistanceKm)

	res, err = uc.Execute(ctx, fielduc.SearchInput{
		Filter: field.SearchFilter{Sport: "football", Lat: &lat, Lng: &lng, RadiusKm: 2},
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, near.ID, res[0].Field.ID)

	res, err = uc.Execute(ctx, fielduc.SearchInput{
		Filter: field.SearchFilter{Sport: "football"},
		Date:   "2026-06-03",
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, near.ID, res[0].Field.ID)
	assert.Len(t, res[0].FreeSlots, 1)

	_, err = uc.Execute(ctx, fielduc.SearchInput{Filter: field.SearchFilter{Lat: &lat}})
	assert.EqualError(t, err, "invalid_request")
}

func TestListFieldSlotsHidesOthersHolds(t *testing.T) {
	f := usecasetest.New(t)
	ctx := context.Background()

	until := usecasetest.T0.Add(10 * time.Minute)
	held := f.AddSlot(50 * time.Hour)
	held.OnHoldUntil, held.HeldBy, held.HoldToken = &until, &f.Other.ID, "tok"
	require.NoError(t, f.Repo.UpdateSlot(ctx, held))

	uc := fielduc.NewListFieldSlots(f.Repo, f.Now)

	slots, err := uc.Execute(ctx, f.Field.ID, "2026-06-03", f.User.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, f.Slot.ID, slots[0].ID)

	slots, err = uc.Execute(ctx, f.Field.ID, "2026-06-03", f.Other.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	_, err = uc.Execute(ctx, f.Field.ID, "03/06/2026", 0)
	assert.EqualError(t, err, "invalid_date")
}

func TestListFieldSlotsHidesSlotsWithOpenCagnotte(t *testing.T) {
	f := usecasetest.New(t)
	ctx := context.Background()

	other := f.AddSlot(50 * time.Hour)
	pool := &models.Cagnotte{SlotID: f.Slot.ID, FieldID: f.Field.ID, OrganizerID: f.Other.ID, Status: "collecting"}
	require.NoError(t, f.Repo.CreateCagnotte(ctx, pool))

	slots, err := fielduc.NewListFieldSlots(f.Repo, f.Now).Execute(ctx, f.Field.ID, "2026-06-03", f.User.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, other.ID, slots[0].ID)

	res, err := fielduc.NewSearchFields(f.Repo, f.Now).Execute(ctx, fielduc.SearchInput{Date: "2026-06-03"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Len(t, res[0].FreeSlots, 1)

	// cagnotte expirada devolve o slot
	pool.Status = "expired"
	require.NoError(t, f.Repo.UpdateCagnotte(ctx, pool))
	slots, err = fielduc.NewListFieldSlots(f.Repo, f.Now).Execute(ctx, f.Field.ID, "2026-06-03", f.User.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}
