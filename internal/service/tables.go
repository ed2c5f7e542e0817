package service

import "fmt"

// Table names a table the services may address by name. Only these values
// are ever interpolated into SQL.
type Table string

const (
	TableUsers             Table = "users"
	TablePosts             Table = "posts"
	TableRatings           Table = "ratings"
	TableImages            Table = "images"
	TablePostImages        Table = "post_images"
	TablePostVotes         Table = "post_votes"
	TableAdminFavorites    Table = "admin_favorites"
	TableSessions          Table = "sessions"
	TableVerify            Table = "verify"
	TablePasswordResets    Table = "password_resets"
	TableEmailChanges      Table = "email_changes"
	TableSuspended         Table = "suspended"
	TableUserStatusChanges Table = "user_status_changes"
	TableLocationTypes     Table = "location_types"
	TablePrograms          Table = "programs"
	TableUserStatuses      Table = "user_statuses"
	TableMeta              Table = "meta"
)

var tables = map[string]Table{
	string(TableUsers):             TableUsers,
	string(TablePosts):             TablePosts,
	string(TableRatings):           TableRatings,
	string(TableImages):            TableImages,
	string(TablePostImages):        TablePostImages,
	string(TablePostVotes):         TablePostVotes,
	string(TableAdminFavorites):    TableAdminFavorites,
	string(TableSessions):          TableSessions,
	string(TableVerify):            TableVerify,
	string(TablePasswordResets):    TablePasswordResets,
	string(TableEmailChanges):      TableEmailChanges,
	string(TableSuspended):         TableSuspended,
	string(TableUserStatusChanges): TableUserStatusChanges,
	string(TableLocationTypes):     TableLocationTypes,
	string(TablePrograms):          TablePrograms,
	string(TableUserStatuses):      TableUserStatuses,
	string(TableMeta):              TableMeta,
}

// ParseTable maps an external table name onto a known Table.
func ParseTable(name string) (Table, error) {
	t, ok := tables[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownTable)
	}
	return t, nil
}
