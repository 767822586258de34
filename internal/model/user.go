package model

import "time"

// Roles carried in the JWT "role" claim.
const (
    RoleEmployee = "employee"
    RoleAdmin    = "admin"
)

// User represents an employee account as stored in the `users` table.
// Employees sign in with their seven digit employee number and name; the
// password hash is derived from both.
//
// Fields:
//  ID           – primary key identifier of the user.
//  EmployeeID   – unique seven digit employee number.
//  Name         – display name.
//  Email        – optional contact address.
//  Department   – organisational unit, used by statistics.
//  PasswordHash – bcrypt hash of the sign-in secret.
//  Role         – employee or admin.
//  IsActive     – whether the account may sign in.
type User struct {
    ID           uint64    // users.id
    EmployeeID   string    // users.employee_id
    Name         string    // users.name
    Email        *string   // users.email (nullable)
    Department   string    // users.department
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
