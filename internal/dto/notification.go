package dto

// MarkReadRequest captures PUT /notifications/:id/read. A missing flag means read.
type MarkReadRequest struct {
	Read *bool `json:"read"`
}

// Value resolves the requested read flag.
func (r MarkReadRequest) Value() bool {
	if r.Read == nil {
		return true
	}
	return *r.Read
}
