package domain

import "time"

type Stats struct {
	Total      int
	High       int
	Medium     int
	Low        int
	Unknown    int
	Duplicates int
}

// Report is what one daily email carries.
type Report struct {
	RunNumber   int64
	GeneratedAt time.Time
	High        []Candidate
	Medium      []Candidate
	Stats       Stats
	WorkflowURL string
}

func (r Report) Empty() bool { return len(r.High) == 0 && len(r.Medium) == 0 }

type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
	StatusDryRun DeliveryStatus = "dry_run"
)

type Delivery struct {
	ID          string
	RunNumber   int64
	Subject     string
	Recipients  []string
	Status      DeliveryStatus
	HighCount   int
	MediumCount int
	Attempts    int
	Error       string
	CreatedAt   time.Time
}
