package msh

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Session identifies one interactive run of the shell; history rows are
// keyed by its ID.
type Session struct {
	ID        string
	StartTime time.Time
	UserID    int
	UserName  string
	Hostname  string
}

func NewSession() *Session {
	hostname, _ := os.Hostname()
	return &Session{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		UserID:    os.Getuid(),
		UserName:  os.Getenv("USER"),
		Hostname:  hostname,
	}
}
