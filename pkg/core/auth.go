package core

import (
	"time"

	"github.com/google/uuid"
)

// MaxFailedAttempts is the number of consecutive wrong passwords that locks an account.
const MaxFailedAttempts = 3

// SecurityAlert describes an account that has just been locked.
type SecurityAlert struct {
	TeacherID string
	Name      string
	Attempts  int
	At        time.Time
}

// AlertSink receives lockout alerts.
type AlertSink interface {
	Alert(a SecurityAlert) error
}

// AlertFunc adapts a function to AlertSink.
type AlertFunc func(a SecurityAlert) error

func (f AlertFunc) Alert(a SecurityAlert) error { return f(a) }

// Session is handed out on a successful login.
type Session struct {
	ID        string
	Teacher   *Teacher
	StartedAt time.Time
}

// Authenticator runs the login/lockout state machine against a TeacherStore.
// All state lives on the Teacher entries.
type Authenticator struct {
	teachers *TeacherStore
	alerts   []AlertSink
	now      func() time.Time
}

func NewAuthenticator(teachers *TeacherStore, alerts ...AlertSink) *Authenticator {
	return &Authenticator{teachers: teachers, alerts: alerts, now: time.Now}
}

// Login checks password for teacher id.
//
// A locked account rejects every attempt, the correct password included.
// A wrong password on an unlocked account increments the counter; the third
// consecutive failure locks the account and raises a SecurityAlert.
// A sink error does not change the outcome of the login.
func (a *Authenticator) Login(id, password string) (*Session, error) {
	t := a.teachers.Find(id)
	if t == nil {
		return nil, opErr("teacher", "Login", id, ErrNotFound)
	}
	if t.Locked() {
		return nil, opErr("teacher", "Login", id, ErrAccountLocked)
	}

	if password == t.Password {
		t.FailedAttempts = 0
		return &Session{ID: uuid.New().String(), Teacher: t, StartedAt: a.now()}, nil
	}

	t.FailedAttempts++
	if t.Locked() {
		alert := SecurityAlert{TeacherID: id, Name: t.Name, Attempts: t.FailedAttempts, At: a.now()}
		for _, sink := range a.alerts {
			_ = sink.Alert(alert)
		}
	}
	return nil, &CredentialsError{TeacherID: id, Remaining: MaxFailedAttempts - t.FailedAttempts}
}
