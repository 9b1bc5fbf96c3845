package domain

// ReactionSet maps an emoji to the usernames that applied it, in apply order.
// Invariant: an emoji key never exists with an empty user list.
type ReactionSet map[string][]string

// Add records username under emoji. Reports whether the set changed
// (false when the username already reacted with that emoji).
func (rs ReactionSet) Add(emoji, username string) bool {
	for _, u := range rs[emoji] {
		if u == username {
			return false
		}
	}
	rs[emoji] = append(rs[emoji], username)
	return true
}

// Remove drops username from emoji's user list, deleting the key when the
// list empties. Reports whether anything was removed.
func (rs ReactionSet) Remove(emoji, username string) bool {
	users, ok := rs[emoji]
	if !ok {
		return false
	}
	for i, u := range users {
		if u == username {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(rs, emoji)
			} else {
				rs[emoji] = users
			}
			return true
		}
	}
	return false
}

// Users returns a copy of emoji's user list, empty (not nil) when absent.
func (rs ReactionSet) Users(emoji string) []string {
	users := rs[emoji]
	out := make([]string, len(users))
	copy(out, users)
	return out
}

// Snapshot deep-copies the set so internal state never escapes the store.
func (rs ReactionSet) Snapshot() ReactionSet {
	out := make(ReactionSet, len(rs))
	for emoji, users := range rs {
		cp := make([]string, len(users))
		copy(cp, users)
		out[emoji] = cp
	}
	return out
}
