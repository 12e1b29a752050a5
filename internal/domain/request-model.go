package domain

import "gorm.io/gorm"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusCompleted RequestStatus = "COMPLETED"
)

type ServiceType string

const (
	ServiceTypeAcademic   ServiceType = "Academic"
	ServiceTypeEmployment ServiceType = "Employment"
)

const DefaultPackageType = "Standard"

type VerificationRequest struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AccountID uint `gorm:"not null;index" json:"account_id"`

	FullName       string      `gorm:"type:varchar(255);not null" json:"fullName"`
	UniversityName string      `gorm:"type:varchar(255);not null" json:"universityName"`
	DegreeTitle    string      `gorm:"type:varchar(255);not null" json:"degreeTitle"`
	GraduationYear int         `gorm:"not null" json:"graduationYear"`
	RegistrationNo string      `gorm:"type:varchar(100);not null" json:"registrationNo"`
	ServiceType    ServiceType `gorm:"type:varchar(30);not null" json:"serviceType"` // Academic | Employment
	PackageType    string      `gorm:"type:varchar(50);not null;default:Standard" json:"packageType"`

	DegreeDocURL     string `gorm:"type:text;not null" json:"degreeDoc"`
	TranscriptDocURL string `gorm:"type:text;not null" json:"transcriptDoc"`
	PassportDocURL   string `gorm:"type:text;not null" json:"passportDoc"`

	AccessCode string        `gorm:"type:varchar(16);uniqueIndex;not null" json:"accessCode"`
	Status     RequestStatus `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`

	// non-empty only once Status is COMPLETED
	VerifiedReportURL string `gorm:"type:text" json:"verifiedReportUrl,omitempty"`

	gorm.Model
}
