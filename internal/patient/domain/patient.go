package domain

import (
	"time"

	taskdomain "carelink-backend/internal/task/domain"
)

// Patient is a care recipient profile. The profile is the source of the
// filter context the frontend passes to the task endpoints.
type Patient struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Conditions  string    `json:"conditions,omitempty"`
	Medications string    `json:"medications,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Doctors     []Doctor  `json:"doctors" gorm:"foreignKey:PatientID"`
	Contacts    []Contact `json:"contacts" gorm:"foreignKey:PatientID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Doctor is a treating physician attached to a patient
type Doctor struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Specialty string    `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is a family member or other emergency contact
type Contact struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Relation  string    `json:"relation,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceToken is a registered FCM push token for the caregiver's devices
type DeviceToken struct {
	ID         string    `json:"id"`
	Token      string    `json:"token" gorm:"uniqueIndex"`
	DeviceInfo string    `json:"device_info,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FilterContext derives the task filter input from the stored profile
func (p *Patient) FilterContext() taskdomain.PatientContext {
	pc := taskdomain.PatientContext{
		PatientName: p.Name,
	}
	for _, d := range p.Doctors {
		if d.Email != "" {
			pc.DoctorEmails = append(pc.DoctorEmails, d.Email)
		}
		if d.Name != "" {
			pc.DoctorNames = append(pc.DoctorNames, d.Name)
		}
	}
	for _, c := range p.Contacts {
		if c.Email != "" {
			pc.ContactEmails = append(pc.ContactEmails, c.Email)
		}
		if c.Name != "" {
			pc.ContactNames = append(pc.ContactNames, c.Name)
		}
	}
	return pc
}
