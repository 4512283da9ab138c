package models

import "time"

type User struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	Email     string `db:"email" json:"email"`
}

// Topic is a tag scoped to a single user. (UserID, Name) is unique.
type Topic struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	UserID int64  `db:"user_id" json:"-"`
}

type Reflection struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Text      string    `db:"text" json:"text"` // Encrypted in DB when encryption is enabled
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Topics    []string  `db:"-" json:"topics"`
}

// TopicUsage counts how many reflections reference a topic.
type TopicUsage struct {
	TopicID     int64  `db:"topic_id" json:"topic_id"`
	Name        string `db:"name" json:"name"`
	Reflections int    `db:"reflections" json:"reflections"`
}

type Overview struct {
	TotalReflections int          `json:"total_reflections"`
	TotalTopics      int          `json:"total_topics"`
	TopicUsage       []TopicUsage `json:"topic_usage"`
}
