package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Doctor struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	ContactNumber  string    `json:"contactNumber"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Address        string    `json:"address"`
	ContactNumber  string    `json:"contactNumber"`
	MedicalHistory string    `json:"medicalHistory"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Appointment.DoctorID holds the doctor's user id, not the Doctor record id.
type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient"`
	DoctorID        string    `json:"doctor"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Reason          string    `json:"reason"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AppointmentView is an appointment joined with display names for listings.
type AppointmentView struct {
	Appointment
	PatientName    string `json:"patientName"`
	PatientContact string `json:"patientContact"`
	DoctorName     string `json:"doctorName"`
}

type Counts struct {
	Patients          int `json:"patients"`
	Doctors           int `json:"doctors"`
	AppointmentsToday int `json:"appointmentsToday"`
}

type Activity struct {
	ID    string    `json:"id"`
	Kind  string    `json:"kind"`
	Title string    `json:"title"`
	Desc  string    `json:"desc"`
	Time  time.Time `json:"time"`
}

// DescribeActivity fills the display title and description of a dashboard row
// for the named subject.
func DescribeActivity(a Activity, name string) Activity {
	switch a.Kind {
	case "patient":
		a.Title = "New Patient Registered"
		a.Desc = name + " joined the clinic."
	case "doctor":
		a.Title = "New Doctor Onboarded"
		a.Desc = "Dr. " + name + " added to staff."
	case "appointment":
		a.Title = "Appointment Scheduled (Today)"
		a.Desc = "Visit set for " + name
	}
	return a
}
