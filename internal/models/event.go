package models

import "time"

// Lifecycle actions recorded in the journal.
const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionPublish   = "publish"
	ActionUnpublish = "unpublish"
	ActionDelete    = "delete"
)

// Event is one article lifecycle change, stored in MongoDB.
type Event struct {
	Slug         string    `json:"slug"                    bson:"slug"`
	PreviousSlug string    `json:"previous_slug,omitempty" bson:"previous_slug,omitempty"`
	Action       string    `json:"action"                  bson:"action"`
	UserID       int64     `json:"user_id"                 bson:"user_id"`
	Title        string    `json:"title"                   bson:"title"`
	At           time.Time `json:"at"                      bson:"at"`
}
