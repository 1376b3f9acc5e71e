// Package storetest provides an in-memory store with the same contracts as
// store.Store, including its unique constraints and cascades, for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

type Memory struct {
	mu           sync.Mutex
	users        map[string]*model.User
	doctors      map[string]*model.Doctor
	patients     map[string]*model.Patient
	appointments map[string]*model.Appointment
	seq          int64
}

func New() *Memory {
	return &Memory{
		users:        make(map[string]*model.User),
		doctors:      make(map[string]*model.Doctor),
		patients:     make(map[string]*model.Patient),
		appointments: make(map[string]*model.Appointment),
	}
}

// stamp returns strictly increasing creation times so ordering by creation is
// stable.
func (m *Memory) stamp() time.Time {
	m.seq++
	return time.Now().Add(time.Duration(m.seq) * time.Microsecond)
}

// ----- users -----

func (m *Memory) emailTaken(email, exceptID string) bool {
	for _, u := range m.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, "") {
		return store.ErrEmailTaken
	}
	u.CreatedAt = m.stamp()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ----- doctors -----

func (m *Memory) doctorContactTaken(contact, exceptID string) bool {
	for _, d := range m.doctors {
		if d.ContactNumber == contact && d.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *Memory) CreateDoctor(_ context.Context, u *model.User, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, "") {
		return store.ErrEmailTaken
	}
	if m.doctorContactTaken(d.ContactNumber, "") {
		return store.ErrContactTaken
	}
	u.CreatedAt = m.stamp()
	u.UpdatedAt = u.CreatedAt
	d.UserID = u.ID
	d.CreatedAt = u.CreatedAt
	d.UpdatedAt = u.CreatedAt

	cu, cd := *u, *d
	m.users[u.ID] = &cu
	m.doctors[d.ID] = &cd
	return nil
}

func (m *Memory) ListDoctors(_ context.Context) ([]model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Doctor{}
	for _, d := range m.doctors {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetDoctor(_ context.Context, id string) (*model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *Memory) DoctorByUserID(_ context.Context, userID string) (*model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UpdateDoctor(_ context.Context, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.doctors[d.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.doctorContactTaken(d.ContactNumber, d.ID) {
		return store.ErrContactTaken
	}
	if m.emailTaken(d.Email, cur.UserID) {
		return store.ErrEmailTaken
	}
	d.UserID = cur.UserID
	d.CreatedAt = cur.CreatedAt
	d.UpdatedAt = m.stamp()
	cp := *d
	m.doctors[d.ID] = &cp
	if u, ok := m.users[d.UserID]; ok {
		u.Email = d.Email
	}
	return nil
}

func (m *Memory) DeleteDoctor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(m.doctors, id)
	delete(m.users, d.UserID)
	for aid, a := range m.appointments {
		if a.DoctorID == d.UserID {
			delete(m.appointments, aid)
		}
	}
	return nil
}

// ----- patients -----

func (m *Memory) patientContactTaken(contact, exceptID string) bool {
	for _, p := range m.patients {
		if p.ContactNumber == contact && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *Memory) CreatePatient(_ context.Context, p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.patientContactTaken(p.ContactNumber, "") {
		return store.ErrContactTaken
	}
	p.CreatedAt = m.stamp()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *Memory) ListPatients(_ context.Context) ([]model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Patient{}
	for _, p := range m.patients {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetPatient(_ context.Context, id string) (*model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpdatePatient(_ context.Context, p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.patients[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.patientContactTaken(p.ContactNumber, p.ID) {
		return store.ErrContactTaken
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = m.stamp()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *Memory) DeletePatient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.patients, id)
	for aid, a := range m.appointments {
		if a.PatientID == id {
			delete(m.appointments, aid)
		}
	}
	return nil
}

// ----- appointments -----

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[a.PatientID]; !ok {
		return store.ErrReference
	}
	if _, ok := m.users[a.DoctorID]; !ok {
		return store.ErrReference
	}
	for _, x := range m.appointments {
		if x.DoctorID == a.DoctorID && x.AppointmentDate.Equal(a.AppointmentDate) {
			return store.ErrSlotTaken
		}
	}
	a.CreatedAt = m.stamp()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *Memory) AppointmentAt(_ context.Context, doctorID string, at time.Time) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.AppointmentDate.Equal(at) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAppointments(_ context.Context, f store.AppointmentFilter) ([]model.AppointmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AppointmentView{}
	for _, a := range m.appointments {
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if !f.From.IsZero() && a.AppointmentDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !a.AppointmentDate.Before(f.To) {
			continue
		}
		v := model.AppointmentView{Appointment: *a}
		if p, ok := m.patients[a.PatientID]; ok {
			v.PatientName = p.Name
			v.PatientContact = p.ContactNumber
		}
		v.DoctorName = m.doctorName(a.DoctorID)
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	return out, nil
}

func (m *Memory) doctorName(userID string) string {
	for _, d := range m.doctors {
		if d.UserID == userID {
			return d.Name
		}
	}
	if u, ok := m.users[userID]; ok {
		return u.Username
	}
	return ""
}

func (m *Memory) SetAppointmentStatus(_ context.Context, id string, status model.Status) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = m.stamp()
	cp := *a
	return &cp, nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.appointments, id)
	return a, nil
}

// ----- dashboard and search -----

func (m *Memory) Counts(_ context.Context, from, to time.Time) (model.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.Counts{Patients: len(m.patients), Doctors: len(m.doctors)}
	for _, a := range m.appointments {
		if !a.AppointmentDate.Before(from) && a.AppointmentDate.Before(to) {
			c.AppointmentsToday++
		}
	}
	return c, nil
}

func (m *Memory) RecentActivity(_ context.Context, from, to time.Time, limit int) ([]model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Activity{}
	for _, p := range m.patients {
		out = append(out, model.DescribeActivity(model.Activity{ID: p.ID, Kind: "patient", Time: p.CreatedAt}, p.Name))
	}
	for _, d := range m.doctors {
		out = append(out, model.DescribeActivity(model.Activity{ID: d.ID, Kind: "doctor", Time: d.CreatedAt}, d.Name))
	}
	for _, a := range m.appointments {
		if a.AppointmentDate.Before(from) || !a.AppointmentDate.Before(to) {
			continue
		}
		name := ""
		if p, ok := m.patients[a.PatientID]; ok {
			name = p.Name
		}
		out = append(out, model.DescribeActivity(model.Activity{ID: a.ID, Kind: "appointment", Time: a.CreatedAt}, name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(q))
}

func (m *Memory) SearchPatients(_ context.Context, q string) ([]model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Patient{}
	for _, p := range m.patients {
		if contains(p.Name, q) || contains(p.ContactNumber, q) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SearchDoctors(_ context.Context, q string) ([]model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Doctor{}
	for _, d := range m.doctors {
		if contains(d.Name, q) || contains(d.Specialization, q) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Len reports the number of stored appointments.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appointments)
}
