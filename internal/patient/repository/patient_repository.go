package repository

import (
	"errors"
	"time"

	patientdomain "carelink-backend/internal/patient/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientRepository defines storage operations for patient profiles
type PatientRepository interface {
	Create(patient *patientdomain.Patient) error
	FindByID(id string) (*patientdomain.Patient, error)
	FindAll() ([]patientdomain.Patient, error)
	Update(patient *patientdomain.Patient) error
	Delete(id string) error
	AddDoctor(doctor *patientdomain.Doctor) error
	AddContact(contact *patientdomain.Contact) error
}

// patientRepository implements PatientRepository interface
type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new instance of patientRepository
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{
		db: db,
	}
}

func (r *patientRepository) Create(patient *patientdomain.Patient) error {
	patient.ID = uuid.New().String()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	for i := range patient.Doctors {
		patient.Doctors[i].ID = uuid.New().String()
		patient.Doctors[i].PatientID = patient.ID
		patient.Doctors[i].CreatedAt = time.Now()
	}
	for i := range patient.Contacts {
		patient.Contacts[i].ID = uuid.New().String()
		patient.Contacts[i].PatientID = patient.ID
		patient.Contacts[i].CreatedAt = time.Now()
	}
	return r.db.Create(patient).Error
}

func (r *patientRepository) FindByID(id string) (*patientdomain.Patient, error) {
	var patient patientdomain.Patient
	err := r.db.Preload("Doctors").Preload("Contacts").Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindAll() ([]patientdomain.Patient, error) {
	var patients []patientdomain.Patient
	err := r.db.Preload("Doctors").Preload("Contacts").Order("created_at").Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *patientRepository) Update(patient *patientdomain.Patient) error {
	patient.UpdatedAt = time.Now()
	return r.db.Save(patient).Error
}

func (r *patientRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", id).Delete(&patientdomain.Doctor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", id).Delete(&patientdomain.Contact{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&patientdomain.Patient{}).Error
	})
}

func (r *patientRepository) AddDoctor(doctor *patientdomain.Doctor) error {
	doctor.ID = uuid.New().String()
	doctor.CreatedAt = time.Now()
	return r.db.Create(doctor).Error
}

func (r *patientRepository) AddContact(contact *patientdomain.Contact) error {
	contact.ID = uuid.New().String()
	contact.CreatedAt = time.Now()
	return r.db.Create(contact).Error
}
