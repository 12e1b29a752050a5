package dto

type SubmitRequest struct {
	FullName       string `json:"fullName" validate:"required"`
	UniversityName string `json:"universityName" validate:"required"`
	DegreeTitle    string `json:"degreeTitle" validate:"required"`
	GraduationYear int    `json:"graduationYear" validate:"required"`
	RegistrationNo string `json:"registrationNo" validate:"required"`
	ServiceType    string `json:"serviceType" validate:"required,oneof=Academic Employment"`
	PackageType    string `json:"packageType,omitempty"`

	DegreeDoc     string `json:"degreeDoc" validate:"required,url"`
	TranscriptDoc string `json:"transcriptDoc" validate:"required,url"`
	PassportDoc   string `json:"passportDoc" validate:"required,url"`
}

type SubmitResponse struct {
	RequestID   uint   `json:"request_id"`
	AccessCode  string `json:"accessCode"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

type AttachReportRequest struct {
	ReportURL string `json:"report_url"`
}

type AdminRequestResponse struct {
	ID             uint   `json:"id"`
	AccountID      uint   `json:"account_id"`
	FullName       string `json:"fullName"`
	UniversityName string `json:"universityName"`
	DegreeTitle    string `json:"degreeTitle"`
	GraduationYear int    `json:"graduationYear"`
	RegistrationNo string `json:"registrationNo"`
	ServiceType    string `json:"serviceType"`
	PackageType    string `json:"packageType"`
	DegreeDoc      string `json:"degreeDoc"`
	TranscriptDoc  string `json:"transcriptDoc"`
	PassportDoc    string `json:"passportDoc"`
	AccessCode     string `json:"accessCode"`
	Status         string `json:"status"`
	ReportURL      string `json:"verifiedReportUrl,omitempty"`
	SubmittedAt    string `json:"submitted_at"`
}

// VerifiedProjection is the only shape the public lookup ever returns.
// Registration number, document URLs and the owning account never
// appear here.
type VerifiedProjection struct {
	FullName          string `json:"fullName"`
	UniversityName    string `json:"universityName"`
	DegreeTitle       string `json:"degreeTitle"`
	GraduationYear    int    `json:"graduationYear"`
	ServiceType       string `json:"serviceType"`
	Status            string `json:"status"`
	VerifiedReportURL string `json:"verifiedReportUrl"`
	CreatedAt         string `json:"createdAt"`
}
