package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

// MemoryStore backs the in-memory repositories used by tests and local runs
// without MySQL. All repositories created from one store share its data.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uint]*models.User
	businesses map[string]*models.Business
	feedbacks  map[uint]*models.Feedback
	consents   []*models.MarketingConsent
	nextID     uint
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]*models.User),
		businesses: make(map[string]*models.Business),
		feedbacks:  make(map[uint]*models.Feedback),
		now:        time.Now,
	}
}

// NewMemoryRepositories wires every repository to a fresh MemoryStore.
func NewMemoryRepositories() *Repositories {
	return NewMemoryStore().Repositories()
}

func (s *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		User:     &memoryUsers{s},
		Business: &memoryBusinesses{s},
		Feedback: &memoryFeedback{s},
		Consent:  &memoryConsents{s},
	}
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

// stamp keeps created_at strictly increasing so ordering is deterministic.
func (s *MemoryStore) stamp() time.Time {
	return s.now().Add(time.Duration(s.nextID) * time.Microsecond)
}

type memoryUsers struct{ s *MemoryStore }

func (r *memoryUsers) Create(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = r.s.stamp()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memoryUsers) GetByID(id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUsers) GetByEmail(email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUsers) Update(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memoryUsers) SetRole(id uint, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (r *memoryUsers) IsAdmin(_ context.Context, id uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	return ok && u.Role == models.ROLE_ADMIN, nil
}

func (r *memoryUsers) List(offset, limit int) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (r *memoryUsers) Count() (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

type memoryBusinesses struct{ s *MemoryStore }

func (r *memoryBusinesses) Create(b *models.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, ok := r.s.businesses[b.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.s.nextID++
	b.CreatedAt = r.s.stamp()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	cp.Owner = nil
	r.s.businesses[b.ID] = &cp
	return nil
}

func (r *memoryBusinesses) GetByID(id string) (*models.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.businesses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memoryBusinesses) GetByIDWithOwner(id string) (*models.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.businesses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	if owner, ok := r.s.users[b.OwnerID]; ok {
		o := *owner
		cp.Owner = &o
	}
	return &cp, nil
}

func (r *memoryBusinesses) GetBySlug(slug string) (*models.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.businesses {
		if b.Slug == slug && slug != "" {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryBusinesses) GetByOwnerID(ownerID uint) ([]models.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Business
	for _, b := range r.s.businesses {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryBusinesses) CountByOwnerID(ownerID uint) (int64, error) {
	list, _ := r.GetByOwnerID(ownerID)
	return int64(len(list)), nil
}

func (r *memoryBusinesses) Update(b *models.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.businesses[b.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *b
	cp.Owner = nil
	cp.UpdatedAt = r.s.now()
	r.s.businesses[b.ID] = &cp
	return nil
}

func (r *memoryBusinesses) SlugExists(slug string) (bool, error) {
	_, err := r.GetBySlug(slug)
	return err == nil, nil
}

func (r *memoryBusinesses) ListWithStats() ([]BusinessWithStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, f := range r.s.feedbacks {
		counts[f.BusinessID]++
	}
	out := make([]BusinessWithStats, 0, len(r.s.businesses))
	for _, b := range r.s.businesses {
		row := BusinessWithStats{
			BusinessID:    b.ID,
			BusinessName:  b.Name,
			IsPro:         b.IsPro,
			FeedbackCount: counts[b.ID],
			CreatedAt:     b.CreatedAt,
		}
		if owner, ok := r.s.users[b.OwnerID]; ok {
			row.OwnerEmail = owner.Email
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memoryFeedback struct{ s *MemoryStore }

func (r *memoryFeedback) Create(f *models.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f.ID = r.s.id()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = r.s.stamp()
	}
	cp := *f
	r.s.feedbacks[f.ID] = &cp
	return nil
}

func (r *memoryFeedback) GetByID(id uint) (*models.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.feedbacks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memoryFeedback) ListUnreadByBusiness(businessID string) ([]models.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Feedback
	for _, f := range r.s.feedbacks {
		if f.BusinessID == businessID && f.Rating <= 3 && f.ReadAt == nil {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryFeedback) MarkRead(id uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.feedbacks[id]
	if !ok || f.ReadAt != nil {
		return gorm.ErrRecordNotFound
	}
	f.ReadAt = &at
	return nil
}

func (r *memoryFeedback) CountByBusiness(businessID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, f := range r.s.feedbacks {
		if f.BusinessID == businessID {
			n++
		}
	}
	return n, nil
}

func (r *memoryFeedback) GetStatsByBusiness(businessID string) (*FeedbackStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := &FeedbackStats{ByRating: make(map[int]int64)}
	var sum int64
	for _, f := range r.s.feedbacks {
		if f.BusinessID != businessID {
			continue
		}
		stats.Total++
		stats.ByRating[f.Rating]++
		sum += int64(f.Rating)
		if f.ReadAt == nil {
			stats.Unread++
		}
	}
	if stats.Total > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

func (r *memoryFeedback) GetDailyStats(businessID string, startDate, endDate time.Time) ([]models.DailyStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int)
	for _, f := range r.s.feedbacks {
		if f.BusinessID != businessID || f.CreatedAt.Before(startDate) || f.CreatedAt.After(endDate) {
			continue
		}
		counts[f.CreatedAt.Format("2006-01-02")]++
	}
	out := make([]models.DailyStats, 0, len(counts))
	for date, count := range counts {
		out = append(out, models.DailyStats{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type memoryConsents struct{ s *MemoryStore }

func (r *memoryConsents) Create(c *models.MarketingConsent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	c.CreatedAt = r.s.stamp()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.s.consents = append(r.s.consents, &cp)
	return nil
}

func (r *memoryConsents) GetLatestByUserID(userID uint) (*models.MarketingConsent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for i := len(r.s.consents) - 1; i >= 0; i-- {
		if r.s.consents[i].UserID == userID {
			cp := *r.s.consents[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryConsents) Unsubscribe(userID uint, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.consents {
		if c.UserID == userID && c.ConsentGiven {
			c.Unsubscribe(at)
			n++
		}
	}
	return n, nil
}

func (r *memoryConsents) List() ([]models.MarketingConsent, error) {
	return r.filter(func(*models.MarketingConsent) bool { return true }), nil
}

func (r *memoryConsents) ListActive() ([]models.MarketingConsent, error) {
	return r.filter((*models.MarketingConsent).IsActive), nil
}

func (r *memoryConsents) filter(keep func(*models.MarketingConsent) bool) []models.MarketingConsent {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.MarketingConsent
	for i := len(r.s.consents) - 1; i >= 0; i-- {
		if keep(r.s.consents[i]) {
			out = append(out, *r.s.consents[i])
		}
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
