// Package source contains the read-only client for the clinic-management
// system the reminder pipeline reconciles against.
package source

// Appointment is one row of the source system's daily appointment list.
// The source is loosely structured: patientPhone may be null or empty, and
// isWorkingHour originates from calendar color-coding, not a schema field.
type Appointment struct {
	ID              string          `json:"id"`
	PatientID       string          `json:"patientId"`
	PatientName     string          `json:"patientName"`
	PatientPhone    string          `json:"patientPhone"`
	Doctor          Doctor          `json:"doctor"`
	AppointmentType AppointmentType `json:"appointmentType"`
	Date            NaiveTime       `json:"date"`
	IsWorkingHour   bool            `json:"isWorkingHour"`
}

// Doctor identifies the treating doctor as listed in the source calendar.
type Doctor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AppointmentType carries the source system's visit type label.
type AppointmentType struct {
	Name string `json:"name"`
}

// Slot is an unfilled calendar slot, used only as an informational hint
// about which doctors are actually present on a given day.
type Slot struct {
	Start      NaiveTime `json:"start"`
	End        NaiveTime `json:"end"`
	DoctorID   string    `json:"doctorId"`
	DoctorName string    `json:"doctorName"`
}
