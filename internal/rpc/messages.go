package rpc

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

type Appointment struct {
	ID              string
	OwnerID         string
	Name            string
	Email           string
	Phone           string
	Date            string
	Time            string
	Notes           string
	ExternalEventID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Status          string
}

func (a *Appointment) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, a.ID)
	out = appendString(out, 2, a.OwnerID)
	out = appendString(out, 3, a.Name)
	out = appendString(out, 4, a.Email)
	out = appendString(out, 5, a.Phone)
	out = appendString(out, 6, a.Date)
	out = appendString(out, 7, a.Time)
	out = appendString(out, 8, a.Notes)
	out = appendString(out, 9, a.ExternalEventID)
	out = appendTime(out, 10, a.CreatedAt)
	out = appendTime(out, 11, a.UpdatedAt)
	out = appendString(out, 12, a.Status)
	return out
}

func (a *Appointment) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &a.ID)
		case 2:
			return consumeString(typ, b, &a.OwnerID)
		case 3:
			return consumeString(typ, b, &a.Name)
		case 4:
			return consumeString(typ, b, &a.Email)
		case 5:
			return consumeString(typ, b, &a.Phone)
		case 6:
			return consumeString(typ, b, &a.Date)
		case 7:
			return consumeString(typ, b, &a.Time)
		case 8:
			return consumeString(typ, b, &a.Notes)
		case 9:
			return consumeString(typ, b, &a.ExternalEventID)
		case 10:
			return consumeTime(typ, b, &a.CreatedAt)
		case 11:
			return consumeTime(typ, b, &a.UpdatedAt)
		case 12:
			return consumeString(typ, b, &a.Status)
		}
		return 0, false
	})
}

// AppointmentInput is the writable part shared by create and update.
type AppointmentInput struct {
	Name  string
	Email string
	Phone string
	Date  string
	Time  string
	Notes string
}

// fields start at offset+1 so update can put the id first
func (in *AppointmentInput) appendTo(out []byte, offset protowire.Number) []byte {
	out = appendString(out, offset+1, in.Name)
	out = appendString(out, offset+2, in.Email)
	out = appendString(out, offset+3, in.Phone)
	out = appendString(out, offset+4, in.Date)
	out = appendString(out, offset+5, in.Time)
	out = appendString(out, offset+6, in.Notes)
	return out
}

func (in *AppointmentInput) consumeField(num protowire.Number, typ protowire.Type, b []byte, offset protowire.Number) (int, bool) {
	switch num - offset {
	case 1:
		return consumeString(typ, b, &in.Name)
	case 2:
		return consumeString(typ, b, &in.Email)
	case 3:
		return consumeString(typ, b, &in.Phone)
	case 4:
		return consumeString(typ, b, &in.Date)
	case 5:
		return consumeString(typ, b, &in.Time)
	case 6:
		return consumeString(typ, b, &in.Notes)
	}
	return 0, false
}

type Notification struct {
	ID              string
	Kind            string
	AppointmentID   string
	FiresAt         time.Time
	AppointmentName string
}

func (n *Notification) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, n.ID)
	out = appendString(out, 2, n.Kind)
	out = appendString(out, 3, n.AppointmentID)
	out = appendTime(out, 4, n.FiresAt)
	out = appendString(out, 5, n.AppointmentName)
	return out
}

func (n *Notification) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &n.ID)
		case 2:
			return consumeString(typ, b, &n.Kind)
		case 3:
			return consumeString(typ, b, &n.AppointmentID)
		case 4:
			return consumeTime(typ, b, &n.FiresAt)
		case 5:
			return consumeString(typ, b, &n.AppointmentName)
		}
		return 0, false
	})
}

// ----- auth -----

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

func (m *RegisterRequest) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, m.Email)
	out = appendString(out, 2, m.Password)
	out = appendString(out, 3, m.Name)
	return out
}

func (m *RegisterRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Email)
		case 2:
			return consumeString(typ, b, &m.Password)
		case 3:
			return consumeString(typ, b, &m.Name)
		}
		return 0, false
	})
}

type RegisterResponse struct {
	UserID       string
	Token        string
	RefreshToken string
}

func (m *RegisterResponse) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, m.UserID)
	out = appendString(out, 2, m.Token)
	out = appendString(out, 3, m.RefreshToken)
	return out
}

func (m *RegisterResponse) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.Token)
		case 3:
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, false
	})
}

type LoginRequest struct {
	Email    string
	Password string
}

func (m *LoginRequest) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, m.Email)
	out = appendString(out, 2, m.Password)
	return out
}

func (m *LoginRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Email)
		case 2:
			return consumeString(typ, b, &m.Password)
		}
		return 0, false
	})
}

type LoginResponse struct {
	Token        string
	UserID       string
	Name         string
	RefreshToken string
}

func (m *LoginResponse) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, m.Token)
	out = appendString(out, 2, m.UserID)
	out = appendString(out, 3, m.Name)
	out = appendString(out, 4, m.RefreshToken)
	return out
}

func (m *LoginResponse) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Token)
		case 2:
			return consumeString(typ, b, &m.UserID)
		case 3:
			return consumeString(typ, b, &m.Name)
		case 4:
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, false
	})
}

type RefreshRequest struct {
	RefreshToken string
}

func (m *RefreshRequest) MarshalWire() []byte {
	return appendString(nil, 1, m.RefreshToken)
}

func (m *RefreshRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 {
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, false
	})
}

type RefreshResponse struct {
	Token        string
	RefreshToken string
}

func (m *RefreshResponse) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, m.Token)
	out = appendString(out, 2, m.RefreshToken)
	return out
}

func (m *RefreshResponse) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Token)
		case 2:
			return consumeString(typ, b, &m.RefreshToken)
		}
		return 0, false
	})
}

// Empty is used by calls with nothing to send or return.
type Empty struct{}

func (*Empty) MarshalWire() []byte { return nil }

func (*Empty) UnmarshalWire(b []byte) error {
	return decode(b, func(protowire.Number, protowire.Type, []byte) (int, bool) { return 0, false })
}

// ----- appointments -----

type CreateAppointmentRequest struct {
	AppointmentInput
}

func (m *CreateAppointmentRequest) MarshalWire() []byte {
	return m.AppointmentInput.appendTo(nil, 0)
}

func (m *CreateAppointmentRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		return m.AppointmentInput.consumeField(num, typ, b, 0)
	})
}

type UpdateAppointmentRequest struct {
	ID string
	AppointmentInput
}

func (m *UpdateAppointmentRequest) MarshalWire() []byte {
	out := appendString(nil, 1, m.ID)
	return m.AppointmentInput.appendTo(out, 1)
}

func (m *UpdateAppointmentRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 {
			return consumeString(typ, b, &m.ID)
		}
		return m.AppointmentInput.consumeField(num, typ, b, 1)
	})
}

// IDRequest addresses a single appointment (get, delete).
type IDRequest struct {
	ID string
}

func (m *IDRequest) MarshalWire() []byte {
	return appendString(nil, 1, m.ID)
}

func (m *IDRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num == 1 {
			return consumeString(typ, b, &m.ID)
		}
		return 0, false
	})
}

// AppointmentResponse wraps the appointment returned by create, get and update.
type AppointmentResponse struct {
	Appointment *Appointment
}

func (m *AppointmentResponse) MarshalWire() []byte {
	if m.Appointment == nil {
		return nil
	}
	return appendMessage(nil, 1, m.Appointment.MarshalWire())
}

func (m *AppointmentResponse) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num != 1 {
			return 0, false
		}
		return consumeBytes(typ, b, func(v []byte) error {
			m.Appointment = &Appointment{}
			return m.Appointment.UnmarshalWire(v)
		})
	})
}

type ListAppointmentsRequest struct {
	Search string
	Period string
	// Date narrows the list to one calendar day, YYYY-MM-DD.
	Date string
}

func (m *ListAppointmentsRequest) MarshalWire() []byte {
	var out []byte
	out = appendString(out, 1, m.Search)
	out = appendString(out, 2, m.Period)
	out = appendString(out, 3, m.Date)
	return out
}

func (m *ListAppointmentsRequest) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Search)
		case 2:
			return consumeString(typ, b, &m.Period)
		case 3:
			return consumeString(typ, b, &m.Date)
		}
		return 0, false
	})
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment
}

func (m *ListAppointmentsResponse) MarshalWire() []byte {
	var out []byte
	for _, a := range m.Appointments {
		out = appendMessage(out, 1, a.MarshalWire())
	}
	return out
}

func (m *ListAppointmentsResponse) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num != 1 {
			return 0, false
		}
		return consumeBytes(typ, b, func(v []byte) error {
			a := &Appointment{}
			if err := a.UnmarshalWire(v); err != nil {
				return err
			}
			m.Appointments = append(m.Appointments, a)
			return nil
		})
	})
}

type ListNotificationsResponse struct {
	Notifications []*Notification
}

func (m *ListNotificationsResponse) MarshalWire() []byte {
	var out []byte
	for _, n := range m.Notifications {
		out = appendMessage(out, 1, n.MarshalWire())
	}
	return out
}

func (m *ListNotificationsResponse) UnmarshalWire(b []byte) error {
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, bool) {
		if num != 1 {
			return 0, false
		}
		return consumeBytes(typ, b, func(v []byte) error {
			n := &Notification{}
			if err := n.UnmarshalWire(v); err != nil {
				return err
			}
			m.Notifications = append(m.Notifications, n)
			return nil
		})
	})
}
