package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/mail"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/ratinggate"
)

type fixture struct {
	repos    *repository.Repositories
	sender   *mail.MemorySender
	svc      *Service
	business *models.Business
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	owner := &models.User{Name: "Owner", Email: "owner@example.com", Role: models.ROLE_OWNER}
	require.NoError(t, repos.User.Create(owner))
	business := &models.Business{
		OwnerID:        owner.ID,
		Name:           "Bar Roma",
		ReviewPlatform: "google_maps",
		GoogleMapsLink: "https://maps.google.com/?cid=1",
	}
	require.NoError(t, repos.Business.Create(business))

	sender := &mail.MemorySender{}
	svc := NewService(repos.Feedback, repos.Business, sender, Config{DashboardURL: "https://app.example.com/dashboard"})
	return &fixture{repos: repos, sender: sender, svc: svc, business: business}
}

func TestSubmitStoresFeedbackAndNotifiesOwner(t *testing.T) {
	f := newFixture(t)

	fb, err := f.svc.Submit(context.Background(), SubmitInput{
		BusinessID: f.business.ID,
		Rating:     2,
		Comment:    "  Cold food  ",
		Contact:    " anna@example.com ",
	})
	require.NoError(t, err)
	f.svc.Wait()

	stored, err := f.repos.Feedback.GetByID(fb.ID)
	require.NoError(t, err)
	assert.Equal(t, f.business.ID, stored.BusinessID)
	assert.Equal(t, 2, stored.Rating)
	assert.Equal(t, "Cold food", stored.Comment)
	assert.Equal(t, "anna@example.com", stored.CustomerContact)
	assert.Nil(t, stored.ReadAt)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "owner@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Bar Roma")
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   SubmitInput
		want error
	}{
		{"blank comment", SubmitInput{BusinessID: f.business.ID, Rating: 1, Comment: "   ", Contact: "a@b.c"}, ErrMissingFeedbackDetails},
		{"blank contact", SubmitInput{BusinessID: f.business.ID, Rating: 3, Comment: "bad", Contact: ""}, ErrMissingFeedbackDetails},
		{"rating out of range", SubmitInput{BusinessID: f.business.ID, Rating: 0, Comment: "bad", Contact: "a@b.c"}, ratinggate.ErrInvalidRating},
		{"positive rating is not private", SubmitInput{BusinessID: f.business.ID, Rating: 4, Comment: "ok", Contact: "a@b.c"}, ratinggate.ErrInvalidRating},
		{"unknown business", SubmitInput{BusinessID: "missing", Rating: 2, Comment: "bad", Contact: "a@b.c"}, gorm.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	count, err := f.repos.Feedback.CountByBusiness(f.business.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	f.sender.Fail = map[string]error{"owner@example.com": errors.New("smtp down")}

	fb, err := f.svc.Submit(context.Background(), SubmitInput{
		BusinessID: f.business.ID, Rating: 1, Comment: "Rude staff", Contact: "+39 333 1234567",
	})
	require.NoError(t, err)
	f.svc.Wait()

	_, err = f.repos.Feedback.GetByID(fb.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.sender.Sent())
}

func seedFeedback(t *testing.T, f *fixture, n int) []*models.Feedback {
	t.Helper()
	var out []*models.Feedback
	for i := 0; i < n; i++ {
		fb := &models.Feedback{BusinessID: f.business.ID, Rating: 1 + i%3, Comment: "c", CustomerContact: "x"}
		require.NoError(t, f.repos.Feedback.Create(fb))
		out = append(out, fb)
	}
	return out
}

func TestListTruncatesForFreePlan(t *testing.T) {
	f := newFixture(t)
	seeded := seedFeedback(t, f, 5)

	list, err := f.svc.List(context.Background(), f.business.ID, false)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 5, list.Total)
	assert.Equal(t, 3, list.Hidden)
	assert.Equal(t, seeded[4].ID, list.Items[0].ID, "newest first")

	pro, err := f.svc.List(context.Background(), f.business.ID, true)
	require.NoError(t, err)
	assert.Len(t, pro.Items, 5)
	assert.Zero(t, pro.Hidden)
}

func TestMarkReadKeepsRecord(t *testing.T) {
	f := newFixture(t)
	seeded := seedFeedback(t, f, 2)
	ctx := context.Background()

	require.NoError(t, f.svc.MarkRead(ctx, f.business.ID, seeded[0].ID))

	list, err := f.svc.List(ctx, f.business.ID, true)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, seeded[1].ID, list.Items[0].ID)

	stored, err := f.repos.Feedback.GetByID(seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead())

	assert.ErrorIs(t, f.svc.MarkRead(ctx, f.business.ID, seeded[0].ID), ErrFeedbackNotFound)
	assert.ErrorIs(t, f.svc.MarkRead(ctx, "other-business", seeded[1].ID), ErrFeedbackNotFound)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	seedFeedback(t, f, 3) // ratings 1, 2, 3
	f.svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	stats, err := f.svc.Stats(context.Background(), f.business.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(3), stats.Unread)
	assert.InDelta(t, 2.0, stats.AverageRating, 0.001)
	require.NotEmpty(t, stats.Daily)
}
