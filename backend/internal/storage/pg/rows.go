package pg

import (
	"database/sql"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
)

type discussionRow struct {
	Id                int64      `gorm:"column:id;primaryKey"`
	Title             string     `gorm:"column:title"`
	Slug              string     `gorm:"column:slug"`
	StartTime         time.Time  `gorm:"column:start_time"`
	StartUserId       *int64     `gorm:"column:start_user_id"`
	StartPostId       *int64     `gorm:"column:start_post_id"`
	LastTime          time.Time  `gorm:"column:last_time"`
	LastUserId        *int64     `gorm:"column:last_user_id"`
	LastPostId        *int64     `gorm:"column:last_post_id"`
	LastPostNumber    int        `gorm:"column:last_post_number"`
	CommentsCount     int        `gorm:"column:comments_count"`
	ParticipantsCount int        `gorm:"column:participants_count"`
	IsPrivate         bool       `gorm:"column:is_private"`
	HideTime          *time.Time `gorm:"column:hide_time"`
	HideUserId        *int64     `gorm:"column:hide_user_id"`
}

func (discussionRow) TableName() string { return "discussions" }

func (r discussionRow) toDomain() domain.Discussion {
	return domain.Discussion{
		Id:                r.Id,
		Title:             r.Title,
		Slug:              r.Slug,
		StartTime:         r.StartTime,
		StartUserId:       deref(r.StartUserId),
		StartPostId:       deref(r.StartPostId),
		LastTime:          r.LastTime,
		LastUserId:        deref(r.LastUserId),
		LastPostId:        deref(r.LastPostId),
		LastPostNumber:    r.LastPostNumber,
		CommentsCount:     r.CommentsCount,
		ParticipantsCount: r.ParticipantsCount,
		IsPrivate:         r.IsPrivate,
		HideTime:          r.HideTime,
		HideUserId:        r.HideUserId,
	}
}

type postRow struct {
	Id           int64      `gorm:"column:id;primaryKey"`
	DiscussionId int64      `gorm:"column:discussion_id"`
	Number       int        `gorm:"column:number"`
	Time         time.Time  `gorm:"column:time"`
	UserId       *int64     `gorm:"column:user_id"`
	Type         string     `gorm:"column:type"`
	Content      string     `gorm:"column:content"`
	EditTime     *time.Time `gorm:"column:edit_time"`
	EditUserId   *int64     `gorm:"column:edit_user_id"`
	HideTime     *time.Time `gorm:"column:hide_time"`
	HideUserId   *int64     `gorm:"column:hide_user_id"`
	IsPrivate    bool       `gorm:"column:is_private"`
}

func (postRow) TableName() string { return "posts" }

func (r postRow) toDomain() domain.Post {
	return domain.Post{
		Id:           r.Id,
		DiscussionId: r.DiscussionId,
		Number:       r.Number,
		Time:         r.Time,
		UserId:       deref(r.UserId),
		Type:         r.Type,
		Content:      r.Content,
		EditTime:     r.EditTime,
		EditUserId:   r.EditUserId,
		HideTime:     r.HideTime,
		HideUserId:   r.HideUserId,
		IsPrivate:    r.IsPrivate,
	}
}

const postColumns = `id, discussion_id, number, time, user_id, type, content,
	edit_time, edit_user_id, hide_time, hide_user_id, is_private`

func scanPost(row interface{ Scan(...any) error }) (domain.Post, error) {
	var r postRow
	err := row.Scan(&r.Id, &r.DiscussionId, &r.Number, &r.Time, &r.UserId, &r.Type, &r.Content,
		&r.EditTime, &r.EditUserId, &r.HideTime, &r.HideUserId, &r.IsPrivate)
	if err != nil {
		return domain.Post{}, err
	}
	return r.toDomain(), nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// nullId stores 0 as NULL.
func nullId(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
