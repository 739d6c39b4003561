// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// UserRole is carried in the access token's "rol" claim. The values mirror
// the CHECK constraint on users.account.role.
type UserRole string

const (
	RoleMember UserRole = "member"
	RoleCoach  UserRole = "coach"
	RoleAdmin  UserRole = "admin"
)
