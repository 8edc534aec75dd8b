package usecase

import (
	"fmt"

	patientdomain "carelink-backend/internal/patient/domain"
	"carelink-backend/internal/patient/repository"
	taskdomain "carelink-backend/internal/task/domain"
)

// PatientUsecase manages patient profiles and derives filter contexts from
// them
type PatientUsecase interface {
	CreatePatient(patient *patientdomain.Patient) error
	GetPatient(id string) (*patientdomain.Patient, error)
	ListPatients() ([]patientdomain.Patient, error)
	UpdatePatient(patient *patientdomain.Patient) error
	DeletePatient(id string) error
	AddDoctor(patientID string, doctor *patientdomain.Doctor) error
	AddContact(patientID string, contact *patientdomain.Contact) error

	// GetContext builds the task filter context for a stored patient
	GetContext(id string) (taskdomain.PatientContext, error)
}

type patientUsecase struct {
	repo repository.PatientRepository
}

// NewPatientUsecase creates a new patient usecase
func NewPatientUsecase(repo repository.PatientRepository) PatientUsecase {
	return &patientUsecase{
		repo: repo,
	}
}

func (u *patientUsecase) CreatePatient(patient *patientdomain.Patient) error {
	if patient.Name == "" {
		return fmt.Errorf("patient name is required")
	}
	return u.repo.Create(patient)
}

func (u *patientUsecase) GetPatient(id string) (*patientdomain.Patient, error) {
	return u.repo.FindByID(id)
}

func (u *patientUsecase) ListPatients() ([]patientdomain.Patient, error) {
	return u.repo.FindAll()
}

func (u *patientUsecase) UpdatePatient(patient *patientdomain.Patient) error {
	existing, err := u.repo.FindByID(patient.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("patient %s not found", patient.ID)
	}
	return u.repo.Update(patient)
}

func (u *patientUsecase) DeletePatient(id string) error {
	return u.repo.Delete(id)
}

func (u *patientUsecase) AddDoctor(patientID string, doctor *patientdomain.Doctor) error {
	if doctor.Name == "" && doctor.Email == "" {
		return fmt.Errorf("doctor needs a name or an email")
	}
	doctor.PatientID = patientID
	return u.repo.AddDoctor(doctor)
}

func (u *patientUsecase) AddContact(patientID string, contact *patientdomain.Contact) error {
	if contact.Name == "" {
		return fmt.Errorf("contact name is required")
	}
	contact.PatientID = patientID
	return u.repo.AddContact(contact)
}

func (u *patientUsecase) GetContext(id string) (taskdomain.PatientContext, error) {
	patient, err := u.repo.FindByID(id)
	if err != nil {
		return taskdomain.PatientContext{}, err
	}
	if patient == nil {
		return taskdomain.PatientContext{}, fmt.Errorf("patient %s not found", id)
	}
	return patient.FilterContext(), nil
}
