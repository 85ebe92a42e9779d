package entity

// UserStatus is the lifecycle state stored in users.status.
type UserStatus int16

const (
	UserStatusUnknown UserStatus = iota
	// UserStatusUnverified has registered but not yet proved the email code.
	UserStatusUnverified
	// UserStatusActive may sign in.
	UserStatusActive
	UserStatusBanned
	// UserStatusInactive closed the account.
	UserStatusInactive
)

var userStatusNames = [...]string{
	UserStatusUnknown:    "Unknown",
	UserStatusUnverified: "Unverified",
	UserStatusActive:     "Active",
	UserStatusBanned:     "Banned",
	UserStatusInactive:   "Inactive",
}

func (us UserStatus) String() string {
	return userStatusNames[us.Ensure()]
}

// Ensure maps values outside the known set to UserStatusUnknown.
func (us UserStatus) Ensure() UserStatus {
	if us < UserStatusUnknown || int(us) >= len(userStatusNames) {
		return UserStatusUnknown
	}
	return us
}
