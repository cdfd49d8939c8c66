package model

import "time"

// User represents a row of the `users` table. The password column only
// ever holds a bcrypt hash; handlers never serialize this struct directly.
//
// Fields:
//  Username    – primary key, unique and immutable.
//  Password    – bcrypt hash (salt embedded).
//  FirstName   – given name.
//  LastName    – family name.
//  Phone       – free-form phone number.
//  JoinAt      – set once at registration.
//  LastLoginAt – updated on each successful authentication; nil before the first.
type User struct {
    Username    string     // users.username
    Password    string     // users.password (bcrypt hash)
    FirstName   string     // users.first_name
    LastName    string     // users.last_name
    Phone       string     // users.phone
    JoinAt      time.Time  // users.join_at
    LastLoginAt *time.Time // users.last_login_at (nullable)
}

// UserSummary is the directory view of a user, also embedded into message
// views as from_user / to_user.
type UserSummary struct {
    Username  string `json:"username"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Phone     string `json:"phone"`
}

// UserDetail adds the timestamps to the summary.
type UserDetail struct {
    UserSummary
    JoinAt      time.Time  `json:"join_at"`
    LastLoginAt *time.Time `json:"last_login_at"`
}

// Summary projects a stored user into its directory record.
func (u User) Summary() UserSummary {
    return UserSummary{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
}

// Detail projects a stored user into its detail view.
func (u User) Detail() UserDetail {
    return UserDetail{UserSummary: u.Summary(), JoinAt: u.JoinAt, LastLoginAt: u.LastLoginAt}
}
