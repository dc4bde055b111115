package models

// Gender enum
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// EmergencyContact is the structured emergency-contact record on a
// patient profile.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// MedicalHistoryEntry is one item of a patient's medical history list.
type MedicalHistoryEntry struct {
	Condition   string `json:"condition"`
	DiagnosedAt string `json:"diagnosedAt,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Patient is the one-to-one profile for a user with the patient role.
type Patient struct {
	BaseModel
	UserID           uint                  `gorm:"uniqueIndex;not null" json:"userId"`
	Age              int                   `json:"age"`
	Gender           Gender                `gorm:"size:10" json:"gender"`
	BloodGroup       string                `gorm:"size:5" json:"bloodGroup"`
	Allergies        []string              `gorm:"serializer:json" json:"allergies"`
	MedicalHistory   []MedicalHistoryEntry `gorm:"serializer:json" json:"medicalHistory"`
	EmergencyContact *EmergencyContact     `gorm:"serializer:json" json:"emergencyContact,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}
