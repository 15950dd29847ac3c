package clinic

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ErrMissingIdentity indicates the record lacks a patient name or ID.
var ErrMissingIdentity = errors.New("patient name and ID are required")

// PatientRecord is the form a participant fills in for each patient.
type PatientRecord struct {
	Name            string `json:"name"`
	PatientID       string `json:"patient_id"`
	Age             string `json:"age"`
	Gender          string `json:"gender"`
	ChiefComplaint  string `json:"chief_complaint"`
	PresentIllness  string `json:"present_illness"`
	PastHistory     string `json:"past_history"`
	PersonalHistory string `json:"personal_history"`
	PhysicalExam    string `json:"physical_exam"`
	Diagnosis       string `json:"diagnosis"`
	TreatmentPlan   string `json:"treatment_plan"`
}

// savedRecord is the on-disk shape of one saved record.
type savedRecord struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"uid"`
	PatientInfo struct {
		Name      string `json:"name"`
		PatientID string `json:"patient_id"`
		Age       string `json:"age"`
		Gender    string `json:"gender"`
	} `json:"patient_info"`
	MedicalRecord struct {
		ChiefComplaint  string `json:"chief_complaint"`
		PresentIllness  string `json:"present_illness"`
		PastHistory     string `json:"past_history"`
		PersonalHistory string `json:"personal_history"`
		PhysicalExam    string `json:"physical_exam"`
		Diagnosis       string `json:"diagnosis"`
		TreatmentPlan   string `json:"treatment_plan"`
	} `json:"medical_record"`
}

// SaveRecord writes the patient record as a timestamped JSON file under
// the records directory and returns the file path.
func (s *Service) SaveRecord(rec PatientRecord) (string, error) {
	if rec.Name == "" || rec.PatientID == "" {
		return "", ErrMissingIdentity
	}

	if err := os.MkdirAll(s.cfg.RecordsDir, 0755); err != nil {
		return "", fmt.Errorf("create records directory: %w", err)
	}

	now := time.Now()
	path := filepath.Join(s.cfg.RecordsDir,
		fmt.Sprintf("record_%s_%s.json", rec.PatientID, now.Format("20060102_150405")))

	var saved savedRecord
	saved.Timestamp = now.Format("2006-01-02 15:04:05")
	saved.SessionID = s.cfg.SessionID
	saved.PatientInfo.Name = rec.Name
	saved.PatientInfo.PatientID = rec.PatientID
	saved.PatientInfo.Age = rec.Age
	saved.PatientInfo.Gender = rec.Gender
	saved.MedicalRecord.ChiefComplaint = rec.ChiefComplaint
	saved.MedicalRecord.PresentIllness = rec.PresentIllness
	saved.MedicalRecord.PastHistory = rec.PastHistory
	saved.MedicalRecord.PersonalHistory = rec.PersonalHistory
	saved.MedicalRecord.PhysicalExam = rec.PhysicalExam
	saved.MedicalRecord.Diagnosis = rec.Diagnosis
	saved.MedicalRecord.TreatmentPlan = rec.TreatmentPlan

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}

	s.log.Info("patient record saved",
		zap.String("path", path),
		zap.String("patient_id", rec.PatientID))
	return path, nil
}
