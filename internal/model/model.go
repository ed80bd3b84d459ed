// Package model defines the entities stored by the playground API and the
// reference stubs that link them across collections.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User status values. Status controls what a user may be linked to; only
// pedagogues are assigned to playgrounds, but the store does not enforce it.
const (
	StatusAdmin     = "admin"
	StatusPedagogue = "pedagogue"
	StatusClient    = "client"
)

// UserRef is a stored reference to a user, carrying only the unique username.
// It is deliberately distinct from User so that an undereferenced stub cannot
// be mistaken for a loaded entity.
type UserRef struct {
	Username string `bson:"username" json:"username"`
}

// EventRef is a stored reference to an event by id.
type EventRef struct {
	ID primitive.ObjectID `bson:"_id" json:"id"`
}

// MessageRef is a stored reference to a message by id.
type MessageRef struct {
	ID primitive.ObjectID `bson:"_id" json:"id"`
}

// Playground is the stored form of a playground. The reference slices hold
// stubs only; use the service layer's GetPlayground for the hydrated view.
type Playground struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name                string             `bson:"name" json:"name"`
	StreetName          string             `bson:"streetName" json:"street_name"`
	StreetNumber        int                `bson:"streetNumber" json:"street_number"`
	ZipCode             int                `bson:"zipCode" json:"zip_code"`
	Commune             string             `bson:"commune" json:"commune"`
	ToiletPossibilities bool               `bson:"toiletPossibilities" json:"toilet_possibilities"`
	HasSoccerField      bool               `bson:"hasSoccerField" json:"has_soccer_field"`
	ImagePath           string             `bson:"imagePath,omitempty" json:"image_path,omitempty"`

	Pedagogues []UserRef    `bson:"pedagogues" json:"-"`
	Events     []EventRef   `bson:"events" json:"-"`
	Messages   []MessageRef `bson:"messages" json:"-"`
}

// User is the stored form of a user, keyed by username.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Username     string             `bson:"username" json:"username"`
	Password     string             `bson:"password" json:"-"`
	Firstname    string             `bson:"firstname" json:"firstname"`
	Lastname     string             `bson:"lastname" json:"lastname"`
	Email        string             `bson:"email" json:"email"`
	Status       string             `bson:"status" json:"status"`
	PhoneNumbers []string           `bson:"phoneNumbers" json:"phone_numbers"`
	ImagePath    string             `bson:"imagePath,omitempty" json:"image_path,omitempty"`
	Website      string             `bson:"website,omitempty" json:"website,omitempty"`

	// PlaygroundIDs holds the names of the playgrounds this user is assigned
	// to as a pedagogue. Playground names are the foreign key, not ObjectIDs.
	PlaygroundIDs []string `bson:"playgroundIDs" json:"playground_ids"`

	Events []EventRef `bson:"events" json:"-"`
}

// EventDetails is the time window of an event.
type EventDetails struct {
	Date      time.Time `bson:"date" json:"date"`
	StartTime time.Time `bson:"startTime" json:"start_time"`
	EndTime   time.Time `bson:"endTime" json:"end_time"`
}

// Event is the stored form of an event. PlaygroundName points at the owning
// playground; Participants holds user stubs.
type Event struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description" json:"description"`
	Capacity       int                `bson:"capacity" json:"capacity"`
	ImagePath      string             `bson:"imagePath,omitempty" json:"image_path,omitempty"`
	Details        EventDetails       `bson:"details" json:"details"`
	PlaygroundName string             `bson:"playgroundName" json:"playground_name"`

	Participants []UserRef `bson:"participants" json:"-"`
}

// Message is the stored form of a playground message board entry.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category       string             `bson:"category" json:"category"`
	Icon           string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Body           string             `bson:"body" json:"body"`
	Outdated       bool               `bson:"outdated" json:"outdated"`
	PlaygroundName string             `bson:"playgroundName" json:"playground_name"`
	AuthorID       string             `bson:"authorID" json:"author_id"`
	Date           time.Time          `bson:"date" json:"date"`
}

// PlaygroundView is a playground with its references hydrated one level deep.
// The embedded stored form keeps the scalar fields; the slices here replace
// the stubs with full entities. Hydration is shallow: the events' participants
// and the pedagogues' own references stay as stubs.
type PlaygroundView struct {
	Playground
	Pedagogues []User    `json:"pedagogues"`
	Events     []Event   `json:"events"`
	Messages   []Message `json:"messages"`
}

// UserView is a user with event references hydrated.
type UserView struct {
	User
	Events []Event `json:"events"`
}

// EventView is an event with participant references hydrated.
type EventView struct {
	Event
	Participants []User `json:"participants"`
}
