package domain

import (
	"fmt"
	"time"
)

// for debug
func (p *Post) String() string {
	return fmt.Sprintf("[id:%d, discussion:%d, number:%d, user:%d, type:%s, time:%s, hidden:%t]",
		p.Id, p.DiscussionId, p.Number, p.UserId, p.Type, p.Time.Format(time.StampMilli), p.IsHidden())
}

func (d *Discussion) String() string {
	return fmt.Sprintf("[id:%d, title:%s, last_post_number:%d, comments:%d, participants:%d, last_time:%v, hidden:%t, private:%t]",
		d.Id, d.Title, d.LastPostNumber, d.CommentsCount, d.ParticipantsCount, d.LastTime, d.IsHidden(), d.IsPrivate)
}
