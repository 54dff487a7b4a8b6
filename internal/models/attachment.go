package models

// AttachmentField names an upload slot on an appointment.
type AttachmentField string

const (
	AttachmentTranscript   AttachmentField = "transcript"
	AttachmentPaymentProof AttachmentField = "paymentProof"
)

// Valid reports whether the field is a known upload slot.
func (f AttachmentField) Valid() bool {
	return f == AttachmentTranscript || f == AttachmentPaymentProof
}

// PathOf returns the stored path for the field, or nil.
func (a *Appointment) PathOf(field AttachmentField) *string {
	switch field {
	case AttachmentTranscript:
		return a.TranscriptPath
	case AttachmentPaymentProof:
		return a.PaymentProofPath
	}
	return nil
}
