// Package store persists users, topics and reflections.
//
// Writes that must commit together take a *db.UnitOfWork; reads go straight
// to the connection pool.
package store

import "errors"

// ErrTopicOwnership is returned when a reflection would be linked to a topic
// owned by a different user.
var ErrTopicOwnership = errors.New("store: topic belongs to another user")

// withUserFilter appends "WHERE <column> = ?" when userID is set. A nil
// userID means no filter; zero is a regular id.
func withUserFilter(query, column string, userID *int64, tail string) (string, []any) {
	if userID == nil {
		return query + " " + tail, nil
	}
	return query + " WHERE " + column + " = ? " + tail, []any{*userID}
}
