package domain

import "time"

// ReadState is the reading progress of one user in one discussion.
type ReadState struct {
	UserId       UserId
	DiscussionId DiscussionId
	ReadTime     time.Time
	ReadNumber   PostNumber
}

// UnreadCount is max(0, lastPostNumber - readNumber) while the state is older
// than the last activity, 0 otherwise. A nil state counts as never read.
func UnreadCount(d *Discussion, state *ReadState) int {
	var readTime time.Time
	readNumber := 0
	if state != nil {
		readTime = state.ReadTime
		readNumber = state.ReadNumber
	}
	if !readTime.Before(d.LastTime) {
		return 0
	}
	return max(0, d.LastPostNumber-readNumber)
}
