package dto

// BlockRequest captures block and unblock payloads.
type BlockRequest struct {
	FacultyID int64  `json:"facultyId" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Reason    string `json:"reason"`
}

// BlockListQuery filters GET /faculty/blocks.
type BlockListQuery struct {
	FacultyID int64  `form:"facultyId"`
	Date      string `form:"date"`
}
