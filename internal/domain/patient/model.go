package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is one person under care, keyed by a national identifier supplied
// by the practitioner.
type Patient struct {
	Identifier string    `db:"identifier" json:"identifier"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Vitals captures the vital-sign panel of a visit. Values are free-text as
// entered at the point of care.
type Vitals struct {
	BloodPressure   string `json:"bp,omitempty"`
	HeartRate       string `json:"hr,omitempty"`
	RespiratoryRate string `json:"rr,omitempty"`
	Temperature     string `json:"temp,omitempty"`
	SpO2            string `json:"spo2,omitempty"`
	Weight          string `json:"weight,omitempty"`
	Height          string `json:"height,omitempty"`
	BMI             string `json:"bmi,omitempty"`
}

// Visit is a single clinical encounter note.
type Visit struct {
	ID                uuid.UUID `db:"id" json:"id"`
	PatientIdentifier string    `db:"patient_identifier" json:"patient_identifier"`
	RecordedAt        time.Time `db:"recorded_at" json:"recorded_at"`
	History           string    `db:"history" json:"history"`
	Background        string    `db:"background" json:"background"`
	Allergies         string    `db:"allergies" json:"allergies"`
	Medications       string    `db:"medications" json:"medications"`
	PhysicalExam      string    `db:"physical_exam" json:"physical_exam"`
	Vitals            Vitals    `db:"vitals" json:"vitals"`
	Plan              string    `db:"plan" json:"plan"`
	Prescriptions     string    `db:"prescriptions" json:"prescriptions"`
}

// Record is a patient together with their visit history, newest first.
type Record struct {
	Identifier string   `json:"identifier"`
	Name       string   `json:"name"`
	Visits     []*Visit `json:"visits"`
}
