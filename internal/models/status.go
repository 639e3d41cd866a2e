package models

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCanceled  AppointmentStatus = "canceled"
)

// CanTransition reports whether an appointment may move to the given status.
// Transitions are monotonic: rejected and canceled are terminal.
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusRejected || to == StatusCanceled
	case StatusConfirmed:
		return to == StatusCanceled
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible
func (s AppointmentStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCanceled
}

// Active reports whether the appointment still holds its slot
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CertificateStatus is the lifecycle state of a health certificate request
type CertificateStatus string

const (
	CertStatusPending  CertificateStatus = "pending"
	CertStatusApproved CertificateStatus = "approved"
	CertStatusRejected CertificateStatus = "rejected"
)

// CanTransition reports whether a certificate may move to the given status.
// Approved and rejected are terminal.
func (s CertificateStatus) CanTransition(to CertificateStatus) bool {
	return s == CertStatusPending && (to == CertStatusApproved || to == CertStatusRejected)
}

// Contact methods a doctor can offer for an appointment
const (
	ContactInPerson = "in_person"
	ContactOnline   = "online"
)
