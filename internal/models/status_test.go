package models

import "testing"

func TestAppointmentStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to canceled", StatusPending, StatusCanceled, true},
		{"confirmed to canceled", StatusConfirmed, StatusCanceled, true},
		{"confirmed to pending", StatusConfirmed, StatusPending, false},
		{"confirmed to rejected", StatusConfirmed, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusCanceled, false},
		{"rejected cannot reopen", StatusRejected, StatusPending, false},
		{"canceled is terminal", StatusCanceled, StatusConfirmed, false},
		{"canceled cannot reopen", StatusCanceled, StatusPending, false},
		{"pending to itself", StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAppointmentStatusTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status AppointmentStatus
		want   bool
	}{
		{"pending not terminal", StatusPending, false},
		{"confirmed not terminal", StatusConfirmed, false},
		{"rejected terminal", StatusRejected, true},
		{"canceled terminal", StatusCanceled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestAppointmentStatusActive(t *testing.T) {
	tests := []struct {
		name   string
		status AppointmentStatus
		want   bool
	}{
		{"pending holds slot", StatusPending, true},
		{"confirmed holds slot", StatusConfirmed, true},
		{"rejected released slot", StatusRejected, false},
		{"canceled released slot", StatusCanceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Active(); got != tt.want {
				t.Errorf("Active(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestCertificateStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from CertificateStatus
		to   CertificateStatus
		want bool
	}{
		{"pending to approved", CertStatusPending, CertStatusApproved, true},
		{"pending to rejected", CertStatusPending, CertStatusRejected, true},
		{"approved is terminal", CertStatusApproved, CertStatusRejected, false},
		{"approved cannot reopen", CertStatusApproved, CertStatusPending, false},
		{"rejected is terminal", CertStatusRejected, CertStatusApproved, false},
		{"rejected cannot reopen", CertStatusRejected, CertStatusPending, false},
		{"pending to itself", CertStatusPending, CertStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDoctorAvailabilityLabel(t *testing.T) {
	tests := []struct {
		name     string
		inPerson bool
		online   bool
		want     string
	}{
		{"both methods", true, true, "in-person & online"},
		{"online only", false, true, "online"},
		{"in-person only", true, false, "in-person"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Doctor{InPersonAvailable: tt.inPerson, OnlineAvailable: tt.online}
			if got := d.AvailabilityLabel(); got != tt.want {
				t.Errorf("AvailabilityLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
