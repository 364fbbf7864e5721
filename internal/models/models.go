package models

import "time"

// User represents an account (and channel) on the platform.
type User struct {
	ID                    string    `json:"id"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	FullName              string    `json:"fullName"`
	Avatar                string    `json:"avatar"`
	CoverImage            string    `json:"coverImage,omitempty"`
	Password              string    `json:"-"`
	RefreshToken          string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// MediaRef points at an object held by the media store. DeleteHandle is the
// opaque key used to release it again.
type MediaRef struct {
	URL          string `json:"url"`
	DeleteHandle string `json:"-"`
}

// Video is an uploaded video owned by a single user.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	IsPublished bool      `json:"isPublished"`
	Views       int64     `json:"views"`
	VideoFile   MediaRef  `json:"videoFile"`
	Thumbnail   MediaRef  `json:"thumbnail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Owner reports the user entitled to mutate the video.
func (v Video) Owner() string { return v.OwnerID }

// Comment is a remark left by a user under a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Comment) Owner() string { return c.OwnerID }

// Tweet is a short text post on a user's channel.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Tweet) Owner() string { return t.OwnerID }

// Playlist is a user-curated ordered set of videos.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p Playlist) Owner() string { return p.OwnerID }

// TargetKind tags the entity a like points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

// Valid reports whether k is one of the known target kinds.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	}
	return false
}

// LikeTarget identifies exactly one likeable entity.
type LikeTarget struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func VideoTarget(id string) LikeTarget   { return LikeTarget{Kind: TargetVideo, ID: id} }
func CommentTarget(id string) LikeTarget { return LikeTarget{Kind: TargetComment, ID: id} }
func TweetTarget(id string) LikeTarget   { return LikeTarget{Kind: TargetTweet, ID: id} }

// Like is the edge between a user and a liked entity. At most one exists
// per (LikedBy, Target).
type Like struct {
	ID        string     `json:"id"`
	Target    LikeTarget `json:"target"`
	LikedBy   string     `json:"likedBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Subscription is the edge from a subscriber to a channel.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
