package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/repository"
)

const reportDateLayout = "2006-01-02"

// ReportAggregator computes read-only statistics. Its reads are independent
// and not transactionally joined.
type ReportAggregator struct {
	identities repository.IdentityReader
	donations  repository.DonationReader
	loc        *time.Location
	now        func() time.Time
}

func NewReportAggregator(identities repository.IdentityReader, donations repository.DonationReader, loc *time.Location) *ReportAggregator {
	if loc == nil {
		loc = time.Local
	}
	return &ReportAggregator{identities: identities, donations: donations, loc: loc, now: time.Now}
}

// WithClock replaces the aggregator's time source.
func (a *ReportAggregator) WithClock(now func() time.Time) *ReportAggregator {
	a.now = now
	return a
}

// Daily reports on one calendar day; an empty date means today.
func (a *ReportAggregator) Daily(ctx context.Context, date string) (*domain.DailyReport, error) {
	day := a.now().In(a.loc)
	if date != "" {
		var err error
		if day, err = a.parseDate(date); err != nil {
			return nil, err
		}
	}
	start, end := a.dayBounds(day)

	records, err := a.donations.List(ctx, repository.ListDonationsInput{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("daily donations: %w", err)
	}
	regs, err := a.registrations(ctx, start, end)
	if err != nil {
		return nil, err
	}

	donated, received := partition(records)

	// Every blood type is present, zero when inactive.
	stats := make(map[domain.BloodType]domain.BloodTypeStat, len(domain.BloodTypes))
	for _, bt := range domain.BloodTypes {
		stats[bt] = domain.BloodTypeStat{}
	}
	for _, d := range donated.Details {
		s := stats[d.BloodType]
		s.Donated += d.Quantity
		s.Count++
		stats[d.BloodType] = s
	}

	return &domain.DailyReport{
		Date:           start,
		Start:          start,
		End:            end,
		Donated:        donated,
		Received:       received,
		Registrations:  regs,
		BloodTypeStats: stats,
	}, nil
}

// Range reports over [start 00:00, end 23:59:59.999], both inclusive calendar days.
func (a *ReportAggregator) Range(ctx context.Context, startDate, endDate string) (*domain.RangeReport, error) {
	startDay, err := a.parseDate(startDate)
	if err != nil {
		return nil, err
	}
	endDay, err := a.parseDate(endDate)
	if err != nil {
		return nil, err
	}
	if startDay.After(endDay) {
		return nil, fmt.Errorf("%w: startDate is after endDate", domain.ErrInvalidInput)
	}
	start, _ := a.dayBounds(startDay)
	_, end := a.dayBounds(endDay)

	records, err := a.donations.List(ctx, repository.ListDonationsInput{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("range donations: %w", err)
	}
	regs, err := a.registrations(ctx, start, end)
	if err != nil {
		return nil, err
	}

	donated, received := partition(records)
	if records == nil {
		records = []*domain.DonationRecord{}
	}
	return &domain.RangeReport{
		Start:         start,
		End:           end,
		Donations:     records,
		Donated:       donated,
		Received:      received,
		Registrations: regs,
	}, nil
}

// Users lists verified identities with their ledger totals. role may be
// empty or "all" for no filter.
func (a *ReportAggregator) Users(ctx context.Context, role string) (*domain.UserReport, error) {
	filter := domain.Role(role)
	if role == "all" {
		filter = ""
	}
	if filter != "" && !filter.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	identities, err := a.identities.ListVerified(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	ids := make([]string, len(identities))
	for i, ident := range identities {
		ids[i] = ident.ID
	}
	totals, err := a.donations.TotalsByIdentity(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("user totals: %w", err)
	}

	report := &domain.UserReport{Users: make([]domain.UserReportEntry, len(identities))}
	for i, ident := range identities {
		report.Users[i] = domain.UserReportEntry{Identity: ident, Totals: totals[ident.ID]}
		switch ident.Role {
		case domain.RoleDonor:
			report.Stats.Donors++
		case domain.RoleReceiver:
			report.Stats.Receivers++
		case domain.RoleAdmin:
			report.Stats.Admins++
		}
	}
	report.Stats.Total = len(identities)
	return report, nil
}

func (a *ReportAggregator) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(reportDateLayout, s, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}

func (a *ReportAggregator) dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.In(a.loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, a.loc)
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), a.loc)
	return start, end
}

func (a *ReportAggregator) registrations(ctx context.Context, start, end time.Time) (domain.Registrations, error) {
	total, err := a.identities.CountVerified(ctx, nil, nil)
	if err != nil {
		return domain.Registrations{}, fmt.Errorf("count registrations: %w", err)
	}
	inWindow, err := a.identities.CountVerified(ctx, &start, &end)
	if err != nil {
		return domain.Registrations{}, fmt.Errorf("count window registrations: %w", err)
	}
	return domain.Registrations{Total: total, InWindow: inWindow}, nil
}

func partition(records []*domain.DonationRecord) (donated, received domain.Bucket) {
	donated.Details = []*domain.DonationRecord{}
	received.Details = []*domain.DonationRecord{}
	for _, r := range records {
		switch r.Status {
		case domain.StatusDonated:
			donated.Details = append(donated.Details, r)
			donated.Count++
			donated.Total += r.Quantity
		case domain.StatusReceived:
			received.Details = append(received.Details, r)
			received.Count++
			received.Total += r.Quantity
		}
	}
	return donated, received
}
