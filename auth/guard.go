package auth

// AuthorizeOwner allows the action only when current is the target user.
func AuthorizeOwner(current *User, targetUserID int64) error {
	if current == nil || current.ID != targetUserID {
		return ErrNotEnoughPermissions
	}
	return nil
}
