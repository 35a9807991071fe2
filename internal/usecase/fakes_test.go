package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/repository"
)

// ---- identity store ----

type memIdentityRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Identity
	nextID int
	now    func() time.Time
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{byID: make(map[string]*domain.Identity), now: time.Now}
}

func (r *memIdentityRepo) Create(_ context.Context, i *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, i.Email) {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	c := *i
	c.ID = fmt.Sprintf("identity-%d", r.nextID)
	c.Email = strings.ToLower(c.Email)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	r.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.byID {
		if strings.EqualFold(i.Email, email) {
			c := *i
			return &c, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *memIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	c := *i
	return &c, nil
}

func (r *memIdentityRepo) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	i.Verified = true
	return nil
}

func (r *memIdentityRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	i.PasswordHash = hash
	return nil
}

func (r *memIdentityRepo) DeletePending(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byID[id]; ok && !i.Verified {
		delete(r.byID, id)
	}
	return nil
}

func (r *memIdentityRepo) CountVerified(_ context.Context, from, to *time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, i := range r.byID {
		if !i.Verified {
			continue
		}
		if from != nil && i.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && i.CreatedAt.After(*to) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *memIdentityRepo) ListVerified(_ context.Context, role domain.Role) ([]*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Identity
	for _, i := range r.byID {
		if i.Verified && (role == "" || i.Role == role) {
			c := *i
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

// put inserts an identity as-is, bypassing hashing; used to seed report fixtures.
func (r *memIdentityRepo) put(i domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[i.ID] = &i
}

// ---- one-time codes ----

type otpKey struct {
	identityID string
	purpose    domain.Purpose
}

type memOTPRepo struct {
	mu     sync.Mutex
	slots  map[otpKey]domain.OneTimeCode
	putErr error
}

func newMemOTPRepo() *memOTPRepo {
	return &memOTPRepo{slots: make(map[otpKey]domain.OneTimeCode)}
}

func (r *memOTPRepo) Put(_ context.Context, c *domain.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.slots[otpKey{c.IdentityID, c.Purpose}] = *c
	return nil
}

func (r *memOTPRepo) Get(_ context.Context, identityID string, purpose domain.Purpose) (*domain.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.slots[otpKey{identityID, purpose}]
	if !ok {
		return nil, domain.ErrOTPNotFound
	}
	return &c, nil
}

func (r *memOTPRepo) Claim(_ context.Context, identityID string, purpose domain.Purpose, codeHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := otpKey{identityID, purpose}
	c, ok := r.slots[k]
	switch {
	case !ok:
		return domain.ErrOTPNotFound
	case c.Expired(now):
		return domain.ErrOTPExpired
	case c.CodeHash != codeHash:
		return domain.ErrOTPMismatch
	}
	delete(r.slots, k)
	return nil
}

func (r *memOTPRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.slots {
		if c.Expired(now) {
			delete(r.slots, k)
			n++
		}
	}
	return n, nil
}

// ---- donations ----

type memDonationRepo struct {
	mu         sync.Mutex
	records    []*domain.DonationRecord
	identities *memIdentityRepo
	createErr  error
}

func newMemDonationRepo(identities *memIdentityRepo) *memDonationRepo {
	return &memDonationRepo{identities: identities}
}

func (r *memDonationRepo) Create(_ context.Context, d *domain.DonationRecord) (*domain.DonationRecord, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *d
	c.ID = fmt.Sprintf("donation-%d", len(r.records)+1)
	r.records = append(r.records, &c)
	out := c
	return &out, nil
}

func (r *memDonationRepo) List(ctx context.Context, in repository.ListDonationsInput) ([]*domain.DonationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DonationRecord
	for _, d := range r.records {
		if in.IdentityID != "" && d.IdentityID != in.IdentityID {
			continue
		}
		if in.Status != "" && d.Status != in.Status {
			continue
		}
		if in.From != nil && d.EventDate.Before(*in.From) {
			continue
		}
		if in.To != nil && d.EventDate.After(*in.To) {
			continue
		}
		c := *d
		if r.identities != nil {
			if i, err := r.identities.FindByID(ctx, d.IdentityID); err == nil {
				c.Donor = &domain.DonorSummary{Name: i.Name, Email: i.Email, BloodType: i.BloodType, Phone: i.Phone, Role: i.Role}
			}
		}
		out = append(out, &c)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].EventDate.After(out[b].EventDate) })
	return out, nil
}

func (r *memDonationRepo) TotalsByIdentity(_ context.Context, ids []string) (map[string]domain.DonationTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	totals := make(map[string]domain.DonationTotals)
	for _, d := range r.records {
		if !want[d.IdentityID] {
			continue
		}
		t := totals[d.IdentityID]
		if d.Status == domain.StatusDonated {
			t.DonatedCount++
			t.DonatedQuantity += d.Quantity
		} else {
			t.ReceivedCount++
			t.ReceivedQuantity += d.Quantity
		}
		totals[d.IdentityID] = t
	}
	return totals, nil
}

// ---- email ----

type sentEmail struct {
	to, subject, body string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *fakeEmailSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentEmail{to, subject, body})
	return s.err
}

func (s *fakeEmailSender) last() sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentEmail{}
	}
	return s.sent[len(s.sent)-1]
}

// ---- clock ----

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
