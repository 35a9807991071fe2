package domain

import "time"

type Bucket struct {
	Count   int
	Total   int
	Details []*DonationRecord
}

type BloodTypeStat struct {
	Donated int
	Count   int
}

type Registrations struct {
	Total    int
	InWindow int
}

type DailyReport struct {
	Date           time.Time
	Start          time.Time
	End            time.Time
	Donated        Bucket
	Received       Bucket
	Registrations  Registrations
	BloodTypeStats map[BloodType]BloodTypeStat
}

type RangeReport struct {
	Start         time.Time
	End           time.Time
	Donations     []*DonationRecord
	Donated       Bucket
	Received      Bucket
	Registrations Registrations
}

type UserReportEntry struct {
	Identity *Identity
	Totals   DonationTotals
}

type RoleStats struct {
	Total     int
	Donors    int
	Receivers int
	Admins    int
}

type UserReport struct {
	Users []UserReportEntry
	Stats RoleStats
}
