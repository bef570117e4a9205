package dto

import "time"

type ReportInput struct {
	OrganizationID string
	TeamID         string
	SessionID      string
	UserID         string
	ErrorType      string
	Severity       string
	Message        string
	Phase          string
	Context        map[string]string
}

type DeliveryResult struct {
	Sink      string
	Delivered bool
	Error     string
}

type ReportOutput struct {
	AlertID    string
	Severity   string
	Throttled  bool
	Deliveries []DeliveryResult
}

type SinkInfo struct {
	Name        string
	Version     string
	Enabled     bool
	Binary      string
	MinSeverity string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type RecentInput struct {
	OrganizationID string
	Limit          int
}

type AlertRecord struct {
	ID             string
	OrganizationID string
	SessionID      string
	ErrorType      string
	Severity       string
	Message        string
	Delivered      int
	Throttled      bool
	OccurredAt     time.Time
}
