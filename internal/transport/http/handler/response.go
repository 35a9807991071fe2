package handler

import (
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
)

type sessionResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	User      domain.PublicIdentity `json:"user"`
}

func toSessionResponse(s *usecase.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: s.Identity}
}

type donationResponse struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	BloodType domain.BloodType      `json:"bloodType"`
	Quantity  int                   `json:"quantity"`
	Status    domain.DonationStatus `json:"status"`
	EventDate time.Time             `json:"donationDate"`
	Notes     *string               `json:"notes,omitempty"`
	Donor     *domain.DonorSummary  `json:"donor,omitempty"`
}

func toDonationResponse(d *domain.DonationRecord) donationResponse {
	return donationResponse{
		ID:        d.ID,
		UserID:    d.IdentityID,
		BloodType: d.BloodType,
		Quantity:  d.Quantity,
		Status:    d.Status,
		EventDate: d.EventDate,
		Notes:     d.Note,
		Donor:     d.Donor,
	}
}

func toDonationResponses(records []*domain.DonationRecord) []donationResponse {
	out := make([]donationResponse, len(records))
	for i, d := range records {
		out[i] = toDonationResponse(d)
	}
	return out
}

type bucketResponse struct {
	Count   int                `json:"count"`
	Total   int                `json:"total"`
	Details []donationResponse `json:"details"`
}

func toBucketResponse(b domain.Bucket) bucketResponse {
	return bucketResponse{Count: b.Count, Total: b.Total, Details: toDonationResponses(b.Details)}
}

type bloodTypeStatResponse struct {
	Donated int `json:"donated"`
	Count   int `json:"count"`
}

type dailyRegistrationsResponse struct {
	Total int `json:"total"`
	Today int `json:"today"`
}

type dailyReportResponse struct {
	Date           string                                     `json:"date"`
	Start          time.Time                                  `json:"startOfDay"`
	End            time.Time                                  `json:"endOfDay"`
	Donations      bucketResponse                             `json:"donations"`
	Received       bucketResponse                             `json:"received"`
	Registrations  dailyRegistrationsResponse                 `json:"registrations"`
	BloodTypeStats map[domain.BloodType]bloodTypeStatResponse `json:"bloodTypeStats"`
}

func toDailyReportResponse(r *domain.DailyReport) dailyReportResponse {
	stats := make(map[domain.BloodType]bloodTypeStatResponse, len(r.BloodTypeStats))
	for bt, s := range r.BloodTypeStats {
		stats[bt] = bloodTypeStatResponse{Donated: s.Donated, Count: s.Count}
	}
	return dailyReportResponse{
		Date:           r.Date.Format("2006-01-02"),
		Start:          r.Start,
		End:            r.End,
		Donations:      toBucketResponse(r.Donated),
		Received:       toBucketResponse(r.Received),
		Registrations:  dailyRegistrationsResponse{Total: r.Registrations.Total, Today: r.Registrations.InWindow},
		BloodTypeStats: stats,
	}
}

type rangeReportResponse struct {
	StartDate        time.Time          `json:"startDate"`
	EndDate          time.Time          `json:"endDate"`
	Donations        []donationResponse `json:"donations"`
	TotalDonated     int                `json:"totalDonated"`
	TotalReceived    int                `json:"totalReceived"`
	TotalUsers       int                `json:"totalUsers"`
	NewRegistrations int                `json:"newRegistrations"`
}

func toRangeReportResponse(r *domain.RangeReport) rangeReportResponse {
	return rangeReportResponse{
		StartDate:        r.Start,
		EndDate:          r.End,
		Donations:        toDonationResponses(r.Donations),
		TotalDonated:     r.Donated.Total,
		TotalReceived:    r.Received.Total,
		TotalUsers:       r.Registrations.Total,
		NewRegistrations: r.Registrations.InWindow,
	}
}

type userReportEntryResponse struct {
	domain.PublicIdentity
	TotalDonated  int `json:"totalDonated"`
	TotalReceived int `json:"totalReceived"`
	DonationCount int `json:"donationCount"`
	ReceivedCount int `json:"receivedCount"`
}

type roleStatsResponse struct {
	Total     int `json:"total"`
	Donors    int `json:"donors"`
	Receivers int `json:"receivers"`
	Admins    int `json:"admins"`
}

type userReportResponse struct {
	Users []userReportEntryResponse `json:"users"`
	Stats roleStatsResponse         `json:"stats"`
}

func toUserReportResponse(r *domain.UserReport) userReportResponse {
	users := make([]userReportEntryResponse, len(r.Users))
	for i, u := range r.Users {
		users[i] = userReportEntryResponse{
			PublicIdentity: u.Identity.Public(),
			TotalDonated:   u.Totals.DonatedQuantity,
			TotalReceived:  u.Totals.ReceivedQuantity,
			DonationCount:  u.Totals.DonatedCount,
			ReceivedCount:  u.Totals.ReceivedCount,
		}
	}
	return userReportResponse{
		Users: users,
		Stats: roleStatsResponse{
			Total:     r.Stats.Total,
			Donors:    r.Stats.Donors,
			Receivers: r.Stats.Receivers,
			Admins:    r.Stats.Admins,
		},
	}
}
