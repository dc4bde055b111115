package models

// AvailabilityDay is one entry of a doctor's declared weekly availability:
// a weekday and the time-slot labels offered on it. The list is advisory;
// booking does not enforce it.
type AvailabilityDay struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// Doctor is the one-to-one profile for a user with the doctor role.
type Doctor struct {
	BaseModel
	UserID          uint              `gorm:"uniqueIndex;not null" json:"userId"`
	Specialization  string            `gorm:"size:100;not null" json:"specialization"`
	Qualification   string            `gorm:"size:100;not null" json:"qualification"`
	Experience      int               `json:"experience"`
	ConsultationFee float64           `json:"consultationFee"`
	Availability    []AvailabilityDay `gorm:"serializer:json" json:"availability"`
	Rating          float64           `gorm:"default:0" json:"rating"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}
