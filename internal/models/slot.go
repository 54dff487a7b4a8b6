package models

import "time"

// SlotAvailability reports whether one catalog label can still be booked.
type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotCount is the number of capacity-consuming bookings at a label.
type SlotCount struct {
	Time  string `db:"time"`
	Count int    `db:"count"`
}

// BlockedSlot is provider-declared unavailability for one slot.
type BlockedSlot struct {
	ID        int64     `db:"id" json:"id"`
	FacultyID int64     `db:"faculty_id" json:"facultyId"`
	Date      string    `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Reason    *string   `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// QueueSummary reports the waiting line for a category or provider.
type QueueSummary struct {
	Queue      []QueuePosition `json:"queue"`
	Waiting    int             `json:"waiting"`
	EtaMinutes int             `json:"eta_minutes"`
}

// QueuePosition is a placeholder entry in the waiting line.
type QueuePosition struct {
	Position int `json:"position"`
}

// QueueStatus reports where a student's earliest waiting request sits.
type QueueStatus struct {
	Department *string `json:"department"`
	Waiting    int     `json:"waiting"`
}
