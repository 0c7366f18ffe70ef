package hub

import "complaints/backend/internal/models"

// Client is one live-inbox connection.
type Client interface {
	// GetUserID returns the user the connection was opened for.
	GetUserID() string
	// GetSendChannel returns the channel the manager delivers notifications
	// to. The manager drops clients whose channel is full.
	GetSendChannel() chan<- models.Notification
	// Run starts the connection pumps.
	Run()
	// Close stops delivery to the client.
	Close()
}
